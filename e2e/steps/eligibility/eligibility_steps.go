package eligibility

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetResponseField(field string) (any, error)
	JourneyID(name string) string
}

// RegisterSteps registers evaluation and restriction steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &eligibilitySteps{tc: tc}

	ctx.Step(`^journey "([^"]*)" with operator "([^"]*)" was delayed (\d+) minutes on a fare of (\d+) pence$`, steps.delayedJourney)
	ctx.Step(`^journey "([^"]*)" has segments:$`, steps.withSegments)
	ctx.Step(`^I evaluate journey "([^"]*)"$`, steps.evaluate)
	ctx.Step(`^I fetch the evaluation for journey "([^"]*)"$`, steps.fetch)
	ctx.Step(`^I validate restriction "([^"]*)" on "([^"]*)" departing at "([^"]*)"$`, steps.validateRestriction)
	ctx.Step(`^the applied rules should include "([^"]*)"$`, steps.appliedRulesInclude)
}

type eligibilitySteps struct {
	tc       TestContext
	journeys map[string]map[string]any
}

func (s *eligibilitySteps) journey(name string) map[string]any {
	if s.journeys == nil {
		s.journeys = make(map[string]map[string]any)
	}
	j, ok := s.journeys[name]
	if !ok {
		j = map[string]any{"journey_id": s.tc.JourneyID(name)}
		s.journeys[name] = j
	}
	return j
}

func (s *eligibilitySteps) delayedJourney(_ context.Context, name, operator string, delay, fare int) error {
	j := s.journey(name)
	j["operator_code"] = operator
	j["delay_minutes"] = delay
	j["fare_pence"] = fare
	return nil
}

func (s *eligibilitySteps) withSegments(_ context.Context, name string, table *godog.Table) error {
	var segments []map[string]any
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("segment rows need operator and fare columns")
		}
		var fare int
		if _, err := fmt.Sscan(row.Cells[1].Value, &fare); err != nil {
			return fmt.Errorf("segment fare %q: %w", row.Cells[1].Value, err)
		}
		segments = append(segments, map[string]any{
			"operator_code":      row.Cells[0].Value,
			"fare_portion_pence": fare,
			"order":              i,
		})
	}
	s.journey(name)["segments"] = segments
	return nil
}

func (s *eligibilitySteps) evaluate(_ context.Context, name string) error {
	return s.tc.POST("/eligibility/evaluate", s.journey(name))
}

func (s *eligibilitySteps) fetch(_ context.Context, name string) error {
	return s.tc.GET("/eligibility/" + s.tc.JourneyID(name))
}

func (s *eligibilitySteps) validateRestriction(_ context.Context, code, date, departure string) error {
	return s.tc.POST("/eligibility/restrictions/validate", map[string]any{
		"restriction_codes": strings.Split(code, ","),
		"journey_date":      date,
		"departure_time":    departure,
	})
}

func (s *eligibilitySteps) appliedRulesInclude(_ context.Context, rule string) error {
	v, err := s.tc.GetResponseField("applied_rules")
	if err != nil {
		return err
	}
	rules, ok := v.([]any)
	if !ok {
		return fmt.Errorf("applied_rules is not a list: %v", v)
	}
	for _, r := range rules {
		if r == rule {
			return nil
		}
	}
	return fmt.Errorf("applied_rules %v does not include %s", rules, rule)
}
