package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/flexlog/internal/models"
	"github.com/meltforce/flexlog/internal/nutrition"
	"github.com/meltforce/flexlog/internal/strength"
)

const dateLayout = "2006-01-02"

var errNoServer = errors.New("no server configured, pass -server or set FLEXLOG_SERVER")

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseDate(s string) (string, error) {
	if s == "" {
		return time.Now().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return s, nil
}

func (e *env) deviceID() error {
	id, err := e.store.DeviceID(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, id)
	return nil
}

func (e *env) logLift(args []string) error {
	fs := newFlagSet("log-lift", e.out)
	day := fs.String("day", "", "workout day name (created if missing)")
	exercise := fs.String("exercise", "", "exercise name (created if missing)")
	weight := fs.Float64("weight", 0, "working weight in the display units")
	date := fs.String("date", "", "date (YYYY-MM-DD, default today)")
	reps := fs.String("reps", "8-12", "rep scheme for a new exercise")
	sets := fs.Int("sets", 3, "set count for a new exercise")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *day == "" || *exercise == "" {
		return errors.New("-day and -exercise are required")
	}
	d, err := parseDate(*date)
	if err != nil {
		return err
	}

	state, err := e.store.Update(e.ctx, func(s *models.StoreState) error {
		wd := s.FindWorkoutDay(*day)
		if wd == nil {
			s.WorkoutDays = append(s.WorkoutDays, models.WorkoutDay{
				ID:        uuid.NewString(),
				Name:      *day,
				SortOrder: len(s.WorkoutDays),
				Exercises: []models.WorkoutExercise{},
			})
			wd = &s.WorkoutDays[len(s.WorkoutDays)-1]
		}
		ex := wd.FindExercise(*exercise)
		if ex == nil {
			wd.Exercises = append(wd.Exercises, models.WorkoutExercise{
				ID:   uuid.NewString(),
				Name: *exercise,
				Sets: *sets,
				Reps: *reps,
			})
			ex = &wd.Exercises[len(wd.Exercises)-1]
		}
		ex.TrackWeight = true
		if err := ex.SetLog(d, *weight); err != nil {
			return err
		}
		s.MarkDay(d)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Logged %s %g %s on %s (%s)\n", *exercise, *weight, state.EffectiveUnits(), d, *day)
	return nil
}

func (e *env) weighIn(args []string) error {
	fs := newFlagSet("weigh-in", e.out)
	weight := fs.Float64("weight", 0, "bodyweight in the display units")
	date := fs.String("date", "", "date (YYYY-MM-DD, default today)")
	override := fs.Bool("bodyweight", false, "also use this weight for strength tracking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := parseDate(*date)
	if err != nil {
		return err
	}

	state, err := e.store.Update(e.ctx, func(s *models.StoreState) error {
		if err := s.SetWeightLog(d, *weight); err != nil {
			return err
		}
		if *override {
			w := *weight
			s.BodyweightOverride = &w
		}
		s.MarkDay(d)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Weigh-in %g %s on %s\n", *weight, state.EffectiveUnits(), d)
	return nil
}

func (e *env) strength(args []string) error {
	fs := newFlagSet("strength", e.out)
	asJSON := fs.Bool("json", false, "print the raw result as JSON")
	minDays := fs.Int("min-days", 0, "distinct days required (default 4)")
	minEntries := fs.Int("min-entries", 0, "entries required (default 8)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *minDays < 0 || *minEntries < 0 {
		return errors.New("-min-days and -min-entries must not be negative")
	}

	state, err := e.store.Load(e.ctx)
	if err != nil {
		return err
	}
	p := strength.ParamsFromState(&state)
	p.MinDistinctDays = *minDays
	p.MinTotalEntries = *minEntries
	res := strength.ComputeSeries(p)

	if *asJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if len(res.Series) > 0 {
		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tINDEX\tENTRIES")
		for _, pt := range res.Series {
			fmt.Fprintf(tw, "%s\t%.3f\t%d\n", pt.Date, pt.Index, pt.Entries)
		}
		tw.Flush()
	}
	if !res.OK {
		fmt.Fprintln(e.out, res.Reason)
		return nil
	}
	fmt.Fprintf(e.out, "Baseline %.3f  Current %.3f", *res.Baseline, *res.Current)
	if res.ChangePct != nil {
		fmt.Fprintf(e.out, "  Change %+.1f%%", *res.ChangePct)
	}
	fmt.Fprintln(e.out)
	return nil
}

func (e *env) classify(args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return errors.New("usage: classify <exercise name>")
	}
	p := strength.Classify(name)
	fmt.Fprintf(e.out, "%s\t%s\t%.2f x bodyweight\n", p.ID, p.Label, p.ExpectedRelative)
	return nil
}

func (e *env) targets(args []string) error {
	fs := newFlagSet("targets", e.out)
	units := fs.String("units", "", "lb or kg (default: display units)")
	sex := fs.String("sex", "", "male or female (omit to use stored answers)")
	age := fs.Float64("age", 0, "age in years")
	height := fs.Float64("height-cm", 0, "height in centimeters")
	weight := fs.Float64("weight", 0, "bodyweight in -units")
	activity := fs.String("activity", string(models.ActivityModerate), "sedentary, light, moderate, very or athlete")
	goalMode := fs.String("goal-mode", string(models.GoalModeSimple), "simple, percent or rate")
	goal := fs.String("goal", string(models.SimpleGoalMaintain), "lose, maintain or gain (goal-mode simple)")
	percent := fs.Float64("percent", 0, "signed calorie adjustment in percent (goal-mode percent)")
	rate := fs.Float64("rate", 0, "weekly change in -units, positive is a deficit (goal-mode rate)")
	save := fs.Bool("save", false, "store the answers and targets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	state, err := e.store.Load(e.ctx)
	if err != nil {
		return err
	}

	var p nutrition.Params
	if *sex == "" {
		if state.Onboarding == nil {
			return errors.New("no stored answers; pass -sex, -age, -height-cm and -weight")
		}
		p = *state.Onboarding
	} else {
		u := models.Units(*units)
		if u == "" {
			u = state.EffectiveUnits()
		}
		p = nutrition.Params{
			Units:      u,
			Sex:        models.Sex(*sex),
			Age:        *age,
			HeightCm:   *height,
			Weight:     *weight,
			Activity:   models.Activity(*activity),
			GoalMode:   models.GoalMode(*goalMode),
			SimpleGoal: models.SimpleGoal(*goal),
			Percent:    *percent,
			Rate:       *rate,
		}
	}

	res, err := nutrition.ComputeTargets(p)
	if err != nil {
		return err
	}

	if *save {
		_, err := e.store.Update(e.ctx, func(s *models.StoreState) error {
			answers := p
			targets := res.Targets
			s.Onboarding = &answers
			s.Targets = &targets
			s.Units = p.Units
			return nil
		})
		if err != nil {
			return err
		}
	}

	t := res.Targets
	fmt.Fprintf(e.out, "TDEE %g kcal\nCalories %g kcal  Protein %g g  Carbs %g g  Fat %g g\n",
		res.TDEE, t.Calories, t.ProteinG, t.CarbsG, t.FatG)
	return nil
}

func (e *env) push() error {
	if e.client == nil {
		return errNoServer
	}
	deviceID, err := e.store.DeviceID(e.ctx)
	if err != nil {
		return err
	}
	state, err := e.store.Load(e.ctx)
	if err != nil {
		return err
	}
	if err := e.client.Push(e.ctx, deviceID, state); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Pushed snapshot for %s\n", deviceID)
	return nil
}

func (e *env) pull() error {
	if e.client == nil {
		return errNoServer
	}
	deviceID, err := e.store.DeviceID(e.ctx)
	if err != nil {
		return err
	}
	state, err := e.client.Pull(e.ctx, deviceID)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Fprintf(e.out, "No snapshot on server for %s\n", deviceID)
		return nil
	}
	if err := e.store.Save(e.ctx, *state); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Pulled snapshot for %s\n", deviceID)
	return nil
}
