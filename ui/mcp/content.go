package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
)

// ContentHandler exposes LLM content generation to MCP agents.
type ContentHandler struct {
	blogService   domainBlog.IBlogUsecase
	socialService domainSocial.ISocialUsecase
}

func InitMcpContent(blogService domainBlog.IBlogUsecase, socialService domainSocial.ISocialUsecase) *ContentHandler {
	return &ContentHandler{
		blogService:   blogService,
		socialService: socialService,
	}
}

func (h *ContentHandler) AddContentTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(h.toolGenerateBlogPost(), h.handleGenerateBlogPost)
	mcpServer.AddTool(h.toolGenerateSocialPost(), h.handleGenerateSocialPost)
	mcpServer.AddTool(h.toolListBlogPosts(), h.handleListBlogPosts)
}

func (h *ContentHandler) toolGenerateBlogPost() mcp.Tool {
	return mcp.NewTool(
		"inkwell_generate_blog_post",
		mcp.WithDescription("Generate a blog post draft with the configured LLM and store it as a draft."),
		mcp.WithTitleAnnotation("Generate Blog Post"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("topic",
			mcp.Description("The subject the post should cover."),
			mcp.Required(),
		),
		mcp.WithString("length",
			mcp.Description("Desired length: short (~300 words), medium (~600) or long (~1200)."),
		),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated SEO keywords to work into the text."),
		),
		mcp.WithString("target_audience",
			mcp.Description("Who the post is written for."),
		),
		mcp.WithString("content_purpose",
			mcp.Description("What the post should achieve (educate, announce, convert...)."),
		),
		mcp.WithString("source_url",
			mcp.Description("Optional URL whose content grounds the post factually."),
		),
	)
}

func (h *ContentHandler) handleGenerateBlogPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil {
		return nil, err
	}

	req := domainBlog.GenerateBlogPostRequest{
		Topic:          topic,
		Length:         request.GetString("length", ""),
		TargetAudience: request.GetString("target_audience", ""),
		ContentPurpose: request.GetString("content_purpose", ""),
		SourceURL:      request.GetString("source_url", ""),
	}
	if keywords := request.GetString("keywords", ""); keywords != "" {
		for _, k := range strings.Split(keywords, ",") {
			if k = strings.TrimSpace(k); k != "" {
				req.Keywords = append(req.Keywords, k)
			}
		}
	}

	post, err := h.blogService.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Draft %s created: %s", post.ID, post.Title)
	return mcp.NewToolResultStructured(post, fallback), nil
}

func (h *ContentHandler) toolGenerateSocialPost() mcp.Tool {
	return mcp.NewTool(
		"inkwell_generate_social_post",
		mcp.WithDescription("Generate a social media post draft for a platform, respecting its character limit."),
		mcp.WithTitleAnnotation("Generate Social Post"),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("platform",
			mcp.Description("Target network: twitter, facebook, instagram or linkedin."),
			mcp.Required(),
		),
		mcp.WithString("topic",
			mcp.Description("The subject the post should cover."),
			mcp.Required(),
		),
		mcp.WithString("tone",
			mcp.Description("Writing tone, e.g. engaging, professional, playful."),
		),
	)
}

func (h *ContentHandler) handleGenerateSocialPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform, err := request.RequireString("platform")
	if err != nil {
		return nil, err
	}
	topic, err := request.RequireString("topic")
	if err != nil {
		return nil, err
	}

	post, err := h.socialService.Generate(ctx, domainSocial.GenerateSocialPostRequest{
		Platform: platform,
		Topic:    topic,
		Tone:     request.GetString("tone", ""),
	})
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Draft %s post %s created (%d chars)", post.Platform, post.ID, len(post.Content))
	return mcp.NewToolResultStructured(post, fallback), nil
}

func (h *ContentHandler) toolListBlogPosts() mcp.Tool {
	return mcp.NewTool(
		"inkwell_list_blog_posts",
		mcp.WithDescription("List blog posts, optionally filtered by editorial status."),
		mcp.WithTitleAnnotation("List Blog Posts"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("status",
			mcp.Description("Filter: draft, review, approved, published or archived."),
		),
	)
}

func (h *ContentHandler) handleListBlogPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	posts, err := h.blogService.List(ctx, domainBlog.ListBlogPostsRequest{
		Status: request.GetString("status", ""),
	})
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Found %d blog posts", len(posts))
	return mcp.NewToolResultStructured(posts, fallback), nil
}
