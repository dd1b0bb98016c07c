package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aureum-app/settings/internal/preference"
)

// NewMCPServer creates an MCP server exposing the settings as tools and
// resources.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"aureum",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("aureum: read and change the user's theme, language, notification and profile settings."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("get_settings",
			mcp.WithDescription("Return the full settings screen state as JSON."),
		),
		mcpGetSettings(deps),
	)

	s.AddTool(
		mcp.NewTool("set_theme",
			mcp.WithDescription("Set the appearance mode. system follows the OS appearance."),
			mcp.WithString("mode", mcp.Description("light, dark or system"), mcp.Required(), mcp.Enum("light", "dark", "system")),
		),
		mcpSetTheme(deps),
	)

	s.AddTool(
		mcp.NewTool("toggle_theme",
			mcp.WithDescription("Switch to dark when the mode is light, otherwise to light."),
		),
		mcpToggleTheme(deps),
	)

	s.AddTool(
		mcp.NewTool("set_language",
			mcp.WithDescription("Set the language mode. auto follows the device locale."),
			mcp.WithString("mode", mcp.Description("auto, en or es"), mcp.Required(), mcp.Enum("auto", "en", "es")),
		),
		mcpSetLanguage(deps),
	)

	s.AddTool(
		mcp.NewTool("set_notification",
			mcp.WithDescription("Enable or disable a notification toggle."),
			mcp.WithString("name", mcp.Description("email, push or auto_sync"), mcp.Required()),
			mcp.WithBoolean("enabled", mcp.Description("New toggle value"), mcp.Required()),
		),
		mcpSetNotification(deps),
	)

	s.AddTool(
		mcp.NewTool("set_profile_field",
			mcp.WithDescription("Update a user profile field."),
			mcp.WithString("key", mcp.Description("Profile field (identity.name, identity.email or identity.role)"), mcp.Required()),
			mcp.WithString("value", mcp.Description("Value to set"), mcp.Required()),
		),
		mcpSetProfileField(deps),
	)

	s.AddTool(
		mcp.NewTool("translate",
			mcp.WithDescription("Translate a UI string key into the applied language or the given one."),
			mcp.WithString("key", mcp.Description("Catalog key, e.g. settings.title"), mcp.Required()),
			mcp.WithString("language", mcp.Description("Optional language code (en or es)")),
		),
		mcpTranslate(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"settings://current",
			"Current Settings",
			mcp.WithResourceDescription("Theme, language, notifications and profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSettings(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"settings://language/options",
			"Language Options",
			mcp.WithResourceDescription("Selectable language modes with display names and flags"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLanguageOptions(deps),
	)

	return s
}

func mcpGetSettings(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := deps.Settings.Snapshot(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load settings: %v", err)), nil
		}
		b, err := json.Marshal(snap)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal settings: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetTheme(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("mode")
		if err != nil {
			return mcpError("mode is required"), nil
		}
		mode, err := preference.ParseThemeMode(raw)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		if err := deps.Theme.SetMode(ctx, mode); err != nil {
			return mcpError(fmt.Sprintf("failed to set theme: %v", err)), nil
		}
		st := deps.Theme.State()
		return mcpText(fmt.Sprintf("Theme mode %s (showing %s)", st.Mode, st.Resolved)), nil
	}
}

func mcpToggleTheme(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode, err := deps.Theme.Toggle(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to toggle theme: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Theme mode %s", mode)), nil
	}
}

func mcpSetLanguage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("mode")
		if err != nil {
			return mcpError("mode is required"), nil
		}
		if err := deps.Language.ChangeLanguage(ctx, preference.LanguageMode(raw)); err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(fmt.Sprintf("Language mode %s (showing %s)", raw, deps.Language.CurrentLanguage())), nil
	}
}

func mcpSetNotification(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		enabled, err := req.RequireBool("enabled")
		if err != nil {
			return mcpError("enabled is required"), nil
		}
		n, err := deps.Settings.SetNotification(ctx, name, enabled)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		b, err := json.Marshal(n)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal notifications: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSetProfileField(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		value, err := req.RequireString("value")
		if err != nil {
			return mcpError("value is required"), nil
		}
		if !strings.Contains(key, ".") {
			key = "identity." + key
		}

		if err := deps.Profile.SetField(key, value); err != nil {
			return mcpError(fmt.Sprintf("failed to set profile field: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Set %s = %s", key, value)), nil
	}
}

func mcpTranslate(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		key, err := req.RequireString("key")
		if err != nil {
			return mcpError("key is required"), nil
		}
		lang := deps.Language.CurrentLanguage()
		if l := req.GetString("language", ""); l != "" {
			lang = preference.Language(l)
			if !preference.IsSupported(lang) {
				return mcpError(fmt.Sprintf("unsupported language %q", l)), nil
			}
		}
		return mcpText(deps.Language.Catalog().T(lang, key)), nil
	}
}

func mcpResourceSettings(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap, err := deps.Settings.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		return jsonResource(req.Params.URI, snap)
	}
}

func mcpResourceLanguageOptions(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(req.Params.URI, deps.Language.Options())
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
