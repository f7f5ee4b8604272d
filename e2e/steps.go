package e2e

import (
	"github.com/cucumber/godog"

	"github.com/loloatlo/railrepay-eligibility-engine/e2e/steps/common"
	"github.com/loloatlo/railrepay-eligibility-engine/e2e/steps/eligibility"
)

// RegisterSteps registers all step definitions from the step packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	eligibility.RegisterSteps(ctx, tc)
}
