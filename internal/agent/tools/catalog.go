// Package tools holds the tool catalog shown to the model and the dispatch
// table that executes the calls it makes. The set of tools is a closed enum:
// adding or removing one is a compile-time change, and an unrecognized name
// from the model is a distinguishable error result, never a panic.
package tools

import (
	"github.com/cloudwego/eino/schema"

	"github.com/inboxagent/server/internal/agent/model"
)

// Kind enumerates every tool the agent can offer.
type Kind int

const (
	KindUnknown Kind = iota
	KindCurrentPeriod
	KindReadTickets
	KindCreateTicket
	KindModifyTicket
	KindGetSprints
	KindGetActiveSprint
	KindGetUserWorkload
	KindGetProjectUsers
)

const (
	NameCurrentPeriod   = "get_current_period"
	NameReadTickets     = "read_tickets"
	NameCreateTicket    = "create_ticket"
	NameModifyTicket    = "modify_ticket"
	NameGetSprints      = "get_sprints"
	NameGetActiveSprint = "get_active_sprint"
	NameGetUserWorkload = "get_user_workload"
	NameGetProjectUsers = "get_project_users"
)

var kindNames = map[Kind]string{
	KindCurrentPeriod:   NameCurrentPeriod,
	KindReadTickets:     NameReadTickets,
	KindCreateTicket:    NameCreateTicket,
	KindModifyTicket:    NameModifyTicket,
	KindGetSprints:      NameGetSprints,
	KindGetActiveSprint: NameGetActiveSprint,
	KindGetUserWorkload: NameGetUserWorkload,
	KindGetProjectUsers: NameGetProjectUsers,
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind maps a model-supplied tool name onto the closed enum.
func ParseKind(name string) (Kind, bool) {
	k, ok := namesToKind[name]
	return k, ok
}

// RequiresTracker reports whether the tool needs a resolved tracker
// integration to run.
func (k Kind) RequiresTracker() bool {
	return k != KindCurrentPeriod
}

// enabled reports whether a tool is part of the catalog for the given
// feature flags and tracker availability.
func (k Kind) enabled(features model.FeatureConfig, trackerAvailable bool) bool {
	if k == KindCurrentPeriod {
		return true
	}
	if !trackerAvailable {
		return false
	}
	switch k {
	case KindGetSprints, KindGetActiveSprint:
		return features.SprintSupport
	case KindGetUserWorkload, KindGetProjectUsers:
		return features.SmartAssignment
	default:
		return true
	}
}

// Catalog assembles the tool schema list offered to the model for one run.
// Without tracker integration the time tool is the only entry; sprint and
// assignment tools appear behind their feature flags, and sprint/due-date
// fields on create/modify only exist when sprint support is on.
func Catalog(features model.FeatureConfig, trackerAvailable bool) []*schema.ToolInfo {
	ordered := []Kind{
		KindCurrentPeriod,
		KindReadTickets,
		KindCreateTicket,
		KindModifyTicket,
		KindGetSprints,
		KindGetActiveSprint,
		KindGetUserWorkload,
		KindGetProjectUsers,
	}

	var infos []*schema.ToolInfo
	for _, k := range ordered {
		if k.enabled(features, trackerAvailable) {
			infos = append(infos, toolInfo(k, features))
		}
	}
	return infos
}

func toolInfo(k Kind, features model.FeatureConfig) *schema.ToolInfo {
	switch k {
	case KindCurrentPeriod:
		return &schema.ToolInfo{
			Name:        NameCurrentPeriod,
			Desc:        "Get the current date, time, and ISO week. Use this to resolve relative dates (today, next Friday) before setting due dates or searching by time.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}

	case KindReadTickets:
		params := map[string]*schema.ParameterInfo{
			"lookback_days": {
				Type: schema.Integer,
				Desc: "How many days back to search (default: 7)",
			},
			"status": {
				Type: schema.String,
				Desc: "Optional status filter, e.g. 'To Do', 'In Progress', 'Done'",
			},
			"assignee": {
				Type: schema.String,
				Desc: "Optional assignee account ID filter",
			},
			"search_text": {
				Type: schema.String,
				Desc: "Optional free-text filter matched against ticket summaries",
			},
		}
		if features.SprintSupport {
			params["sprint_id"] = &schema.ParameterInfo{
				Type: schema.Integer,
				Desc: "Only return tickets in this sprint, from get_sprints",
			}
		}
		return &schema.ToolInfo{
			Name:        NameReadTickets,
			Desc:        "Search recent tickets in the project. Always search before creating a ticket to avoid duplicates. Returns ticket keys, summaries, statuses and assignees.",
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		}

	case KindCreateTicket:
		params := map[string]*schema.ParameterInfo{
			"summary": {
				Type:     schema.String,
				Desc:     "Short one-line ticket summary",
				Required: true,
			},
			"description": {
				Type:     schema.String,
				Desc:     "Full ticket description in markdown. Include the reported problem, context from the email, and any reproduction steps.",
				Required: true,
			},
			"issue_type": {
				Type:     schema.String,
				Desc:     "Issue type: Bug, Story, Task, or Incident",
				Required: true,
			},
			"priority": {
				Type: schema.String,
				Desc: "Priority: Highest, High, Medium, Low",
			},
			"assignee": {
				Type: schema.String,
				Desc: "Account ID of the user to assign, from get_project_users",
			},
			"labels": {
				Type:     schema.Array,
				Desc:     "Labels to apply",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
			"components": {
				Type:     schema.Array,
				Desc:     "Project components to tag",
				ElemInfo: &schema.ParameterInfo{Type: schema.String},
			},
		}
		if features.SprintSupport {
			params["sprint_id"] = &schema.ParameterInfo{
				Type: schema.Integer,
				Desc: "Sprint to place the ticket in, from get_sprints",
			}
			params["due_date"] = &schema.ParameterInfo{
				Type: schema.String,
				Desc: "Due date in YYYY-MM-DD format",
			}
		}
		return &schema.ToolInfo{
			Name:        NameCreateTicket,
			Desc:        "Create a new ticket. Email attachments are uploaded to the ticket automatically. Only create after read_tickets confirmed no duplicate exists.",
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		}

	case KindModifyTicket:
		params := map[string]*schema.ParameterInfo{
			"key": {
				Type:     schema.String,
				Desc:     "Ticket key to modify, e.g. DEMO-42",
				Required: true,
			},
			"summary": {
				Type: schema.String,
				Desc: "New summary",
			},
			"description": {
				Type: schema.String,
				Desc: "Replacement description in markdown",
			},
			"status": {
				Type: schema.String,
				Desc: "New status to transition to",
			},
			"assignee": {
				Type: schema.String,
				Desc: "Account ID of the new assignee",
			},
			"comment": {
				Type: schema.String,
				Desc: "Comment to add, e.g. a follow-up from the email",
			},
			"attach_email_files": {
				Type: schema.Boolean,
				Desc: "Upload this email's attachments to the ticket",
			},
		}
		if features.SprintSupport {
			params["sprint_id"] = &schema.ParameterInfo{
				Type: schema.Integer,
				Desc: "Sprint to move the ticket into",
			}
			params["due_date"] = &schema.ParameterInfo{
				Type: schema.String,
				Desc: "New due date in YYYY-MM-DD format",
			}
		}
		return &schema.ToolInfo{
			Name:        NameModifyTicket,
			Desc:        "Modify an existing ticket: transition status, reassign, comment, or update fields. Use when the email refers to work already tracked.",
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		}

	case KindGetSprints:
		return &schema.ToolInfo{
			Name: NameGetSprints,
			Desc: "List the project's sprints with their states and date ranges.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"state": {
					Type: schema.String,
					Desc: "Optional state filter: active, future, closed",
				},
			}),
		}

	case KindGetActiveSprint:
		return &schema.ToolInfo{
			Name:        NameGetActiveSprint,
			Desc:        "Get the currently active sprint, or null when none is running.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}

	case KindGetUserWorkload:
		return &schema.ToolInfo{
			Name: NameGetUserWorkload,
			Desc: "Get open-ticket counts for the given users. Use to pick the least loaded assignee.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"account_ids": {
					Type:     schema.Array,
					Desc:     "Account IDs to inspect, from get_project_users",
					Required: true,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
				"include_in_progress": {
					Type: schema.Boolean,
					Desc: "Also count tickets currently in progress",
				},
			}),
		}

	case KindGetProjectUsers:
		return &schema.ToolInfo{
			Name: NameGetProjectUsers,
			Desc: "List the project's assignable users with their account IDs.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"role": {
					Type: schema.String,
					Desc: "Optional role filter",
				},
				"active_only": {
					Type: schema.Boolean,
					Desc: "Only include active users (default true)",
				},
			}),
		}
	}

	return nil
}
