package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	"github.com/inkwell-cms/inkwell/ui/mcp"
)

var (
	mcpFlagPort string
	mcpFlagHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the content MCP server using SSE",
	Long:  `Start an MCP (Model Context Protocol) server using Server-Sent Events (SSE) transport. This lets AI agents generate content and manage publish schedules through a standardized protocol.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpFlagPort, "port", "", "Port for the SSE MCP server")
	mcpCmd.Flags().StringVar(&mcpFlagHost, "host", "", "Host for the SSE MCP server")
}

func mcpServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global
	if mcpFlagPort != "" {
		cfg.MCP.Port = mcpFlagPort
	}
	if mcpFlagHost != "" {
		cfg.MCP.Host = mcpFlagHost
	}

	// Create MCP server with capabilities
	mcpServer := server.NewMCPServer(
		"Inkwell Content MCP Server",
		cfg.App.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	)

	contentHandler := mcp.InitMcpContent(blogUsecase, socialUsecase)
	contentHandler.AddContentTools(mcpServer)

	scheduleHandler := mcp.InitMcpSchedule(scheduleUsecase)
	scheduleHandler.AddScheduleTools(mcpServer)

	// Create SSE server
	sseServer := server.NewSSEServer(
		mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", cfg.MCP.Host, cfg.MCP.Port)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", cfg.MCP.Host, cfg.MCP.Port)
	logrus.Printf("Starting Inkwell MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)
	logrus.Printf("Message endpoint: http://%s/message", addr)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Termination signal received, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
