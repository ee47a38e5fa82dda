// internal/api/mcp.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type ChatParams struct {
	Text  string `json:"text" description:"What the user ate or wants to ask"`
	Image string `json:"image,omitempty" description:"Optional food photo as a base64 data URL"`
}

type GetMealsParams struct {
	Date  string `json:"date,omitempty" description:"Only meals logged on this date (YYYY-MM-DD)"`
	Limit int    `json:"limit,omitempty" description:"Maximum number of meals to return, newest first"`
}

type toolHandler func(*gin.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

func (s *Server) tools() map[string]toolHandler {
	return map[string]toolHandler{
		"chat":         s.handleChatTool,
		"get_meals":    s.handleGetMealsTool,
		"get_progress": s.handleGetProgressTool,
	}
}

// extractParams decodes the request arguments into target.
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}
	return nil
}

func createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

func (s *Server) mcpInfo(c *gin.Context) {
	names := lo.Keys(s.tools())
	sort.Strings(names)
	c.JSON(http.StatusOK, gin.H{"server": s.info, "tools": names})
}

// handleMCP serves one CallToolRequest on behalf of the logged-in session.
func (s *Server) handleMCP(c *gin.Context) {
	var request protocol.CallToolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abort(c, BadRequestError("Invalid JSON.", err))
		return
	}

	handler, ok := s.tools()[request.Name]
	if !ok {
		abort(c, NotFoundError(fmt.Sprintf("Unknown tool: %s", request.Name), nil))
		return
	}

	result, err := handler(c, &request)
	if err != nil {
		abort(c, err)
		return
	}
	log.Debug("tool call served", "tool", request.Name)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleChatTool(c *gin.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ChatParams
	if err := extractParams(req, &params); err != nil {
		return nil, BadRequestError("Invalid parameters.", err)
	}

	reply, err := s.app.SendMessage(c.Request.Context(), currentSession(c), params.Text, params.Image)
	if err != nil {
		return nil, err
	}
	reply.Text = plainReply(reply.Text)
	return createJSONResponse(reply)
}

func (s *Server) handleGetMealsTool(c *gin.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetMealsParams
	if err := extractParams(req, &params); err != nil {
		return nil, BadRequestError("Invalid parameters.", err)
	}

	meals, err := s.app.History(currentSession(c), params.Date)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, BadRequestError("limit must be a non-negative integer.", nil)
	}
	return createJSONResponse(nonNil(newest(meals, params.Limit)))
}

func (s *Server) handleGetProgressTool(c *gin.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	report, err := s.app.Progress(currentSession(c))
	if err != nil {
		return nil, err
	}
	return createJSONResponse(report)
}
