package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	domainSchedule "github.com/inkwell-cms/inkwell/domains/schedule"
)

// ScheduleHandler exposes the publish scheduler to MCP agents.
type ScheduleHandler struct {
	scheduleService domainSchedule.IScheduleUsecase
}

func InitMcpSchedule(scheduleService domainSchedule.IScheduleUsecase) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

func (h *ScheduleHandler) AddScheduleTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolSchedulePost(), h.handleSchedulePost)
	mcpServer.AddTool(h.toolListSchedules(), h.handleListSchedules)
	mcpServer.AddTool(h.toolCancelSchedule(), h.handleCancelSchedule)
	mcpServer.AddTool(h.toolListDue(), h.handleListDue)
}

func (h *ScheduleHandler) toolSchedulePost() mcp.Tool {
	return mcp.NewTool(
		"inkwell_schedule_post",
		mcp.WithDescription("Schedule a blog or social post for future publication, optionally recurring."),
		mcp.WithTitleAnnotation("Schedule Post"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("blog_post_id",
			mcp.Description("ID of the blog post to publish. Mutually exclusive with social_post_id."),
		),
		mcp.WithString("social_post_id",
			mcp.Description("ID of the social post to publish. Mutually exclusive with blog_post_id."),
		),
		mcp.WithString("scheduled_time",
			mcp.Description("When to publish, RFC 3339 (e.g. 2026-09-01T09:00:00Z). Must be in the future."),
			mcp.Required(),
		),
		mcp.WithString("frequency",
			mcp.Description("Recurrence: once (default), daily, weekly or monthly."),
		),
	)
}

func (h *ScheduleHandler) handleSchedulePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scheduledTime, err := request.RequireString("scheduled_time")
	if err != nil {
		return nil, err
	}

	item, err := h.scheduleService.Create(ctx, domainSchedule.CreateScheduleRequest{
		BlogPostID:    request.GetString("blog_post_id", ""),
		SocialPostID:  request.GetString("social_post_id", ""),
		ScheduledTime: scheduledTime,
		Frequency:     request.GetString("frequency", ""),
	})
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Schedule %s created for %s post %s", item.ID, item.Target.Kind, item.Target.RefID)
	return mcp.NewToolResultStructured(item, fallback), nil
}

func (h *ScheduleHandler) toolListSchedules() mcp.Tool {
	return mcp.NewTool(
		"inkwell_list_schedules",
		mcp.WithDescription("List schedules, optionally filtered by status or target kind."),
		mcp.WithTitleAnnotation("List Schedules"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("status",
			mcp.Description("Filter: pending, completed, failed or cancelled."),
		),
		mcp.WithString("kind",
			mcp.Description("Filter by target kind: blog or social."),
		),
	)
}

func (h *ScheduleHandler) handleListSchedules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.scheduleService.List(ctx, domainSchedule.ListSchedulesRequest{
		Status: request.GetString("status", ""),
		Kind:   request.GetString("kind", ""),
	})
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Found %d schedules", len(items))
	return mcp.NewToolResultStructured(items, fallback), nil
}

func (h *ScheduleHandler) toolCancelSchedule() mcp.Tool {
	return mcp.NewTool(
		"inkwell_cancel_schedule",
		mcp.WithDescription("Cancel a pending schedule so it will never execute."),
		mcp.WithTitleAnnotation("Cancel Schedule"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("schedule_id",
			mcp.Description("ID of the schedule to cancel."),
			mcp.Required(),
		),
	)
}

func (h *ScheduleHandler) handleCancelSchedule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scheduleID, err := request.RequireString("schedule_id")
	if err != nil {
		return nil, err
	}

	item, err := h.scheduleService.Cancel(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Schedule %s cancelled", item.ID)
	return mcp.NewToolResultStructured(item, fallback), nil
}

func (h *ScheduleHandler) toolListDue() mcp.Tool {
	return mcp.NewTool(
		"inkwell_list_due",
		mcp.WithDescription("List schedules that are due for execution right now."),
		mcp.WithTitleAnnotation("List Due Schedules"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
}

func (h *ScheduleHandler) handleListDue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_ = request
	items, err := h.scheduleService.DueItems(ctx)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("%d schedules due", len(items))
	return mcp.NewToolResultStructured(items, fallback), nil
}
