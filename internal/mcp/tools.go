package mcp

import (
	"context"
	"encoding/json"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
)

type emptyInput struct{}

type getWorkInput struct {
	ID string `json:"id" jsonschema:"work id"`
}

type setWorkStatusInput struct {
	ID       string `json:"id" jsonschema:"work id"`
	State    string `json:"state" jsonschema:"completed, doing or not_started"`
	UserID   string `json:"user_id,omitempty" jsonschema:"student id, ignored when auth is enabled"`
	Username string `json:"username,omitempty" jsonschema:"student display name, ignored when auth is enabled"`
}

type addTopicInput struct {
	Subject string `json:"subject" jsonschema:"subject name"`
	Staff   string `json:"staff" jsonschema:"staff member teaching the subject"`
	Topic   string `json:"topic" jsonschema:"completed topic"`
}

type recentActivityInput struct {
	SubjectID string `json:"subject_id,omitempty" jsonschema:"work, portion or material id to filter by"`
	Type      string `json:"type,omitempty" jsonschema:"activity type to filter by"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

type worksOutput struct {
	Works  []work.Work `json:"works"`
	Totals work.Totals `json:"totals"`
}

type workOutput struct {
	Work   *work.Work   `json:"work"`
	Totals *work.Totals `json:"totals,omitempty"`
}

type topicOutput struct {
	Portion        *portion.Portion `json:"portion"`
	AlreadyExisted bool             `json:"already_existed"`
}

func registerTools(server *sdkmcp.Server, svc Services, authOn bool) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_works",
		Description: "List every work, newest first, with class-wide status totals",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		works, totals, err := svc.Works.List(ctx)
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(worksOutput{Works: works, Totals: totals})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_work",
		Description: "Get a single work with its per-student status entries",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in getWorkInput) (*sdkmcp.CallToolResult, any, error) {
		w, err := svc.Works.Get(ctx, in.ID)
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(workOutput{Work: w})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_work_status",
		Description: "Record a student's status on a work and return the recounted work with fresh totals",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in setWorkStatusInput) (*sdkmcp.CallToolResult, any, error) {
		userID, username := in.UserID, in.Username
		if authOn {
			id, ok := auth.FromContext(ctx)
			if !ok {
				return nil, nil, errIdentityRequired
			}
			userID, username = id.UserID, id.Username
			if username == "" {
				username = id.Email
			}
		}

		w, totals, err := svc.Works.SetStatus(ctx, work.SetStatusRequest{
			WorkID:   in.ID,
			UserID:   userID,
			Username: username,
			State:    in.State,
		})
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(workOutput{Work: w, Totals: &totals})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_portions",
		Description: "List completed topics per subject and staff member",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		portions, err := svc.Portions.List(ctx)
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(portions)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_topic",
		Description: "Mark a topic as completed for a subject and staff member; repeating a topic is a no-op",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in addTopicInput) (*sdkmcp.CallToolResult, any, error) {
		p, existed, err := svc.Portions.AddTopic(ctx, portion.AddTopicRequest{
			Subject: in.Subject,
			Staff:   in.Staff,
			Topic:   in.Topic,
		})
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(topicOutput{Portion: p, AlreadyExisted: existed})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_materials",
		Description: "List shared study materials, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		materials, err := svc.Materials.List(ctx)
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(materials)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "Get recent portal activity, optionally filtered by subject id or type",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in recentActivityInput) (*sdkmcp.CallToolResult, any, error) {
		opts := activity.ListActivityOptions{SubjectID: in.SubjectID, Limit: in.Limit}
		if in.Type != "" {
			typ := activity.ActivityType(in.Type)
			opts.ActivityType = &typ
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, nil, MapError(err)
		}
		return jsonResult(entries)
	})
}

// jsonResult renders v as the tool's text content.
func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encoding tool result")
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
