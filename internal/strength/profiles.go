package strength

import (
	"regexp"
	"strings"
)

// MovementProfile describes the expected relative-strength ceiling of an
// exercise pattern. ExpectedRelative is the e1RM/bodyweight ratio of an
// average lifter on that pattern.
type MovementProfile struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	Description      string  `json:"description"`
	ExpectedRelative float64 `json:"expectedRelative"`
}

type profileMatcher struct {
	profile  MovementProfile
	patterns []*regexp.Regexp
}

// DefaultProfile is assigned to exercise names no catalog entry matches.
var DefaultProfile = MovementProfile{
	ID:               "general",
	Label:            "Unclassified",
	Description:      "Fallback when no movement profile matches.",
	ExpectedRelative: 0.8,
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// catalog order is the tie-break priority: a name is assigned the first
// profile with any matching pattern. Do not reorder.
var catalog = []profileMatcher{
	{
		profile: MovementProfile{
			ID:               "squat-back-front",
			Label:            "Squat (Back/Front)",
			Description:      "Bilateral squat patterns emphasizing knee and hip extension.",
			ExpectedRelative: 1.7,
		},
		patterns: patterns(
			`\b(back\s*squat|squat\s*back|high\s*bar\s*squat|low\s*bar\s*squat)\b`,
			`\b(front\s*squat|fsq|f\s*squat)\b`,
			`\b(safety\s*bar\s*squat|ssb\s*squat|ssb)\b`,
			`\b(pause\s*squat|tempo\s*squat|box\s*squat)\b`,
			`\b(squat)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "squat-specialty-zercher-jefferson",
			Label:            "Squat (Specialty)",
			Description:      "Specialty squat variants like Zercher, Jefferson, hack, goblet, overhead.",
			ExpectedRelative: 1.5,
		},
		patterns: patterns(
			`\bzercher\b`,
			`\b(jefferson\s*squat|jefferson)\b`,
			`\bhack\s*squat\b`,
			`\bgoblet\s*squat\b`,
			`\b(overhead\s*squat|oh\s*squat)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "deadlift-conventional-sumo",
			Label:            "Deadlift (Conventional/Sumo)",
			Description:      "Heavy hip hinge pulls from the floor.",
			ExpectedRelative: 1.85,
		},
		patterns: patterns(
			`\b(dead\s*lift|deadlift|dl)\b`,
			`\b(conventional\s*deadlift|conv\s*dl)\b`,
			`\b(sumo\s*deadlift|sumo\s*dl)\b`,
			`\b(trap\s*bar\s*deadlift|hex\s*bar\s*deadlift|trap\s*bar\s*dl|hex\s*dl)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "hinge-rdl-stiffleg-goodmorning",
			Label:            "Hinge (RDL/Stiff-Leg/Good Morning)",
			Description:      "Posterior-chain hinges without pulling from the floor.",
			ExpectedRelative: 1.45,
		},
		patterns: patterns(
			`\b(rdl|romanian\s*dead\s*lift|romanian\s*deadlift)\b`,
			`\b(stiff\s*leg\s*deadlift|stiff\s*legged\s*deadlift|sldl)\b`,
			`\b(good\s*morning|gm)\b`,
			`\b(block\s*pull|rack\s*pull|pin\s*pull)\b`,
			`\b(jefferson\s*curl)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "split-unilateral-squat",
			Label:            "Unilateral/Split Squat",
			Description:      "Single-leg squat patterns (Bulgarian split squat, lunges, step-ups).",
			ExpectedRelative: 1.05,
		},
		patterns: patterns(
			`\b(bulgarian\s*(split\s*squat|ss)|bss)\b`,
			`\bsplit\s*squat\b`,
			`\b(lunge|lunges|reverse\s*lunge|walking\s*lunge|forward\s*lunge|static\s*lunge)\b`,
			`\b(step\s*up|stepup)\b`,
			`\b(pistol\s*squat|shrimp\s*squat)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "hip-thrust-bridge",
			Label:            "Hip Thrust / Glute Bridge",
			Description:      "Horizontal hip extension patterns like hip thrusts and bridges.",
			ExpectedRelative: 1.3,
		},
		patterns: patterns(
			`\b(hip\s*thrust|hipthrust)\b`,
			`\b(glute\s*bridge|glute\s*bridges|bridge\s*press)\b`,
			`\b(barbell\s*hip\s*thrust|bb\s*hip\s*thrust)\b`,
			`\b(single\s*leg\s*hip\s*thrust|single\s*leg\s*glute\s*bridge)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "horizontal-press-bench",
			Label:            "Horizontal Press (Bench Variants)",
			Description:      "Bench press variations and horizontal pressing.",
			ExpectedRelative: 1.25,
		},
		patterns: patterns(
			`\b(bench\s*press|bench)\b`,
			`\b(close\s*grip\s*bench|cg\s*bench|cgbp)\b`,
			`\b(incline\s*(bench|press)|incline\s*press)\b`,
			`\b(decline\s*(bench|press)|decline\s*press)\b`,
			`\b(db\s*bench|dumbbell\s*bench|db\s*press|dumbbell\s*press)\b`,
			`\b(chest\s*press\s*machine|machine\s*chest\s*press)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "vertical-press-ohp",
			Label:            "Vertical Press (OHP Variants)",
			Description:      "Overhead pressing patterns (standing/seated).",
			ExpectedRelative: 0.85,
		},
		patterns: patterns(
			`\b(ohp|overhead\s*press|overhead\s*barbell\s*press)\b`,
			`\bmilitary\s*press\b`,
			`\b(push\s*press|pp)\b`,
			`\b(seated\s*overhead\s*press|seated\s*ohp)\b`,
			`\b(db\s*shoulder\s*press|dumbbell\s*shoulder\s*press|db\s*ohp)\b`,
			`\barnold\s*press\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "dips-pushups-bodyweight-press",
			Label:            "Bodyweight Pressing (Dips/Push-ups)",
			Description:      "Bodyweight pressing such as dips and push-ups.",
			ExpectedRelative: 0.95,
		},
		patterns: patterns(
			`\b(dip|dips|weighted\s*dip|ring\s*dip)\b`,
			`\b(push\s*up|pushup|press\s*up)\b`,
			`\b(weighted\s*push\s*up|weighted\s*pushup)\b`,
			`\b(handstand\s*push\s*up|hspu)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "rows-horizontal-pull",
			Label:            "Rows (Horizontal Pull)",
			Description:      "Horizontal pulling movements for the back.",
			ExpectedRelative: 1.0,
		},
		patterns: patterns(
			`\brow(s)?\b`,
			`\b(barbell\s*row|bb\s*row|bent\s*over\s*row|pendlay)\b`,
			`\b(dumbbell\s*row|db\s*row|one\s*arm\s*row|single\s*arm\s*row)\b`,
			`\b(cable\s*row|seated\s*row|low\s*row)\b`,
			`\b(chest\s*supported\s*row|t\s*bar\s*row|tbar\s*row)\b`,
			`\b(machine\s*row|hammer\s*strength\s*row)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "vertical-pull-pullups-pulldown",
			Label:            "Vertical Pull (Pull-ups/Pulldown)",
			Description:      "Vertical pulling movements for lats.",
			ExpectedRelative: 0.9,
		},
		patterns: patterns(
			`\b(pull\s*up|pullup|chin\s*up|chinup)\b`,
			`\b(weighted\s*(pull\s*up|pullup|chin\s*up|chinup))\b`,
			`\b(lat\s*pull\s*down|lat\s*pulldown|pull\s*down|pulldown)\b`,
			`\b(neutral\s*grip\s*pull\s*up|neutral\s*grip\s*pulldown)\b`,
			`\b(assisted\s*pull\s*up|assisted\s*pullup)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "olympic-lifts",
			Label:            "Olympic Lifts",
			Description:      "Clean, snatch, jerk variants with a catch.",
			ExpectedRelative: 1.05,
		},
		patterns: patterns(
			`\b(clean\s*&\s*jerk|clean\s*and\s*jerk|c\s*&\s*j)\b`,
			`\b(power\s*clean|hang\s*clean|clean)\b`,
			`\b(snatch|power\s*snatch|hang\s*snatch)\b`,
			`\b(jerk|push\s*jerk|split\s*jerk)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "olympic-derivatives-pulls",
			Label:            "Olympic Derivatives (Pulls)",
			Description:      "Olympic pulls and explosive derivatives without a catch.",
			ExpectedRelative: 1.25,
		},
		patterns: patterns(
			`\b(clean\s*pull|snatch\s*pull)\b`,
			`\b(high\s*pull|hang\s*high\s*pull)\b`,
			`\b(mid\s*thigh\s*pull|pull\s*from\s*blocks)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "lower-machine-compound",
			Label:            "Lower Body Machine Compounds",
			Description:      "Compound lower-body machines like leg press and hack squat.",
			ExpectedRelative: 1.5,
		},
		patterns: patterns(
			`\bleg\s*press\b`,
			`\b(hack\s*squat\s*machine|machine\s*hack\s*squat)\b`,
			`\b(smith\s*machine\s*squat|smith\s*squat)\b`,
			`\b(v\s*squat|v-?squat|pendulum\s*squat)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "hamstring-posterior-accessory",
			Label:            "Posterior Chain Accessories",
			Description:      "Hamstring curls, GHRs, hypers, and related accessories.",
			ExpectedRelative: 0.75,
		},
		patterns: patterns(
			`\b(hamstring\s*curl|leg\s*curl|lying\s*leg\s*curl|seated\s*leg\s*curl)\b`,
			`\b(nordic\s*curl|nordic\s*hamstring)\b`,
			`\b(glute\s*ham\s*raise|ghr)\b`,
			`\b(back\s*extension|hyper\s*extension|reverse\s*hyper)\b`,
			`\b(pull\s*through|cable\s*pull\s*through)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "quad-accessory-extension",
			Label:            "Quad Accessories (Extensions)",
			Description:      "Knee-extension isolation such as leg extensions and sissy squats.",
			ExpectedRelative: 0.65,
		},
		patterns: patterns(
			`\b(leg\s*extension|quad\s*extension)\b`,
			`\bsissy\s*squat\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "calf-raises",
			Label:            "Calves",
			Description:      "Calf raise variations.",
			ExpectedRelative: 0.55,
		},
		patterns: patterns(
			`\b(calf\s*raise|calf\s*raises)\b`,
			`\b(seated\s*calf\s*raise|standing\s*calf\s*raise)\b`,
			`\b(donkey\s*calf\s*raise)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "chest-flye-isolation",
			Label:            "Chest Isolation (Flyes)",
			Description:      "Chest fly and pec deck style movements.",
			ExpectedRelative: 0.6,
		},
		patterns: patterns(
			`\b(fly|flye|flyes|fly\s*machine|pec\s*deck|pec\s*deck\s*fly)\b`,
			`\b(cable\s*crossover|cable\s*fly|chest\s*fly)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "shoulder-isolation-lateral-raise",
			Label:            "Shoulder Isolation (Raises)",
			Description:      "Lateral, front, rear raises and face pulls.",
			ExpectedRelative: 0.5,
		},
		patterns: patterns(
			`\b(lateral\s*raise|lat\s*raise|side\s*raise)\b`,
			`\bfront\s*raise\b`,
			`\b(rear\s*delt\s*raise|rear\s*raise|reverse\s*fly|reverse\s*flye)\b`,
			`\bface\s*pull\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "biceps-isolation",
			Label:            "Biceps Isolation",
			Description:      "Curl variations for elbow flexion.",
			ExpectedRelative: 0.5,
		},
		patterns: patterns(
			`\b(curl|curls)\b`,
			`\b(bicep\s*curl|biceps\s*curl)\b`,
			`\b(hammer\s*curl|incline\s*curl|preacher\s*curl|spider\s*curl)\b`,
			`\b(ez\s*bar\s*curl|ez\s*curl)\b`,
			`\b(cable\s*curl|machine\s*curl)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "triceps-isolation",
			Label:            "Triceps Isolation",
			Description:      "Pushdowns, skull crushers, overhead extensions, kickbacks.",
			ExpectedRelative: 0.55,
		},
		patterns: patterns(
			`\b(tricep|triceps)\b`,
			`\b(push\s*down|pushdown|press\s*down|pressdown)\b`,
			`\b(skull\s*crusher|skullcrusher|lying\s*triceps\s*extension)\b`,
			`\b(overhead\s*triceps\s*extension|oh\s*extension)\b`,
			`\b(triceps\s*kickback|kickback)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "upper-back-traps",
			Label:            "Traps/Upper Back",
			Description:      "Shrugs, upright rows, and high rows.",
			ExpectedRelative: 0.75,
		},
		patterns: patterns(
			`\b(shrug|shrugs)\b`,
			`\bupright\s*row\b`,
			`\bhigh\s*row\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "core-anti-movement",
			Label:            "Core (Anti-movement/Abs)",
			Description:      "Core stability and abdominal isolation.",
			ExpectedRelative: 0.4,
		},
		patterns: patterns(
			`\b(plank|side\s*plank)\b`,
			`\b(ab\s*wheel|roll\s*out|rollout)\b`,
			`\b(crunch|sit\s*up|situp)\b`,
			`\bpallof\s*press\b`,
			`\b(hanging\s*leg\s*raise|leg\s*raise|toes\s*to\s*bar)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "carries-strongman",
			Label:            "Carries & Strongman Events",
			Description:      "Farmer's walks, yoke carries, sled work, stone loads.",
			ExpectedRelative: 0.45,
		},
		patterns: patterns(
			`\b(farmer'?s\s*(walk|carry)|farmers\s*walk|farmers\s*carry)\b`,
			`\b(yoke\s*(walk|carry))\b`,
			`\b(suitcase\s*carry|waiter\s*carry|overhead\s*carry)\b`,
			`\b(sled\s*(push|pull)|prowler)\b`,
			`\b(stone\s*load|atlas\s*stone)\b`,
		),
	},
	{
		profile: MovementProfile{
			ID:               "machines-cables-general",
			Label:            "Machines/Cables (General)",
			Description:      "General machine or cable compounds.",
			ExpectedRelative: 0.85,
		},
		patterns: patterns(
			`\b(machine\s*press|machine\s*row|hammer\s*strength)\b`,
			`\b(cable\s*(press|row|pulldown|pull\s*down))\b`,
			`\b(smith\s*machine\s*(press|bench|ohp))\b`,
		),
	},
}

// Classify assigns an exercise name to the first matching movement profile
// in catalog order, or DefaultProfile when nothing matches.
func Classify(exerciseName string) MovementProfile {
	cleaned := strings.ToLower(exerciseName)
	for _, m := range catalog {
		for _, p := range m.patterns {
			if p.MatchString(cleaned) {
				return m.profile
			}
		}
	}
	return DefaultProfile
}

// Profiles returns the catalog in priority order, followed by DefaultProfile.
func Profiles() []MovementProfile {
	out := make([]MovementProfile, 0, len(catalog)+1)
	for _, m := range catalog {
		out = append(out, m.profile)
	}
	return append(out, DefaultProfile)
}
