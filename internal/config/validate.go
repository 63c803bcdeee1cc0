package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a cleaned copy plus everything wrong with it.
// Warnings keep the engine running; errors block a save/reload.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Cities = trimList(out.Cities)
	out.Categories = trimList(out.Categories)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if _, _, err := ParseDailyAt(out.Schedule.DailyAt); err != nil {
		res.addErr("schedule.daily_at: %v", err)
	}
	if out.Schedule.RetryMax < 0 {
		res.addErr("schedule.retry_max must be >= 0")
	}
	if out.Schedule.RetryMax > 8 {
		res.addWarn("schedule.retry_max is high (%d); rate-limited sources will stall runs.", out.Schedule.RetryMax)
	}
	if out.Schedule.UnitTimeoutSecs <= 0 {
		res.addErr("schedule.unit_timeout_seconds must be > 0")
	}
	if out.Limits.PerUnit <= 0 {
		res.addErr("limits.per_unit must be > 0")
	}

	if len(out.Cities) == 0 {
		res.addErr("cities must list at least one city")
	}
	for _, raw := range out.Categories {
		if strings.EqualFold(raw, "all") {
			continue
		}
		cat := domain.Category(strings.ToLower(raw))
		if !cat.Valid() || cat == domain.CategoryUnknown {
			res.addErr("categories: unknown niche %q", raw)
		}
	}
	if len(out.EnabledCategories()) == 0 {
		res.addErr("categories must enable at least one niche")
	}
	if len(out.EnabledSources()) == 0 {
		res.addWarn("no sources enabled; runs will do nothing")
	}

	checkSource := func(name string, sc SourceConfig) {
		if !sc.Enabled {
			return
		}
		if sc.RPS <= 0 {
			res.addErr("sources.%s.rps must be > 0 when enabled", name)
		}
		if sc.Concurrency <= 0 {
			res.addErr("sources.%s.concurrency must be > 0 when enabled", name)
		}
	}
	checkSource("twogis", out.Sources.TwoGIS)
	checkSource("yandex", out.Sources.Yandex)
	checkSource("egr", out.Sources.EGR)
	checkSource("onliner", out.Sources.Onliner)
	checkSource("dealby", out.Sources.DealBy)
	checkSource("instagram", out.Sources.Instagram)

	return out, res
}

// ParseDailyAt parses "HH:MM" wall-clock trigger times.
func ParseDailyAt(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", s)
	}
	return hour, minute, nil
}
