// Package prompts assembles the system instructions and user context shown
// to the model for one run.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/tracker"
)

//go:embed template/system_prompt.txt
var systemPromptTemplate string

const trackerWorkflow = `1. Call get_current_period first when the email mentions dates or deadlines.
2. Search recent tickets with read_tickets before creating anything.
3. If an existing ticket already covers this email, use modify_ticket to comment, transition, or reassign it instead of creating a duplicate.
4. Otherwise create a single ticket with create_ticket, classified per the rubric above.
5. Stop once the email has been handled; reply with your summary.`

const noTrackerWorkflow = `No issue tracker integration is configured for this tenant. The only available tool is get_current_period. Analyze the email and reply with a summary of what actions a project member should take manually.`

// RenderSystem produces the system instructions. The assignable-user roster
// is included only when smart assignment is on and at least one user was
// resolved; the workflow wording depends on tracker availability.
func RenderSystem(features model.FeatureConfig, trackerAvailable bool, roster []tracker.User) string {
	workflow := trackerWorkflow
	if !trackerAvailable {
		workflow = noTrackerWorkflow
	}

	return strings.NewReplacer(
		"{roster_section}", rosterSection(features, roster),
		"{workflow_section}", workflow,
	).Replace(systemPromptTemplate)
}

func rosterSection(features model.FeatureConfig, roster []tracker.User) string {
	if !features.SmartAssignment || len(roster) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Assignable users:\n")
	for _, u := range roster {
		b.WriteString(fmt.Sprintf("- %s (account id: %s)\n", u.DisplayName, u.AccountID))
	}
	b.WriteString("Assignment procedure: when a ticket needs an owner, check current load with get_user_workload and assign the least loaded suitable active user. Honor explicit assignment requests in the email when the named person is on this list.\n\n")
	return b.String()
}
