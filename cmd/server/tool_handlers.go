package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/metalsbot/metals-chat/internal/api"
	"github.com/metalsbot/metals-chat/internal/goldapi"
	"github.com/metalsbot/metals-chat/internal/tools"
)

// paramKind drives query-string coercion and basic validation for the
// per-tool endpoints. POST bodies arrive as JSON and already carry types;
// GET query parameters are coerced according to their kind.
type paramKind int

const (
	kindString paramKind = iota
	kindNumber
	kindInt
	kindMetal
	kindMetalList
)

type param struct {
	name     string
	kind     paramKind
	required bool
}

// endpoint maps one registered tool to its HTTP path and parameter table.
type endpoint struct {
	path   string
	tool   string
	params []param
	// validate runs after coercion for checks beyond presence and type.
	validate func(args map[string]any) error
}

// ToolHandlers exposes each registered tool as a GET/POST endpoint pair,
// validating required parameters before the tool executes. Parameter
// problems are 400s; failures from an executed tool come back as the
// uniform {success:false, error} envelope.
type ToolHandlers struct {
	registry  *tools.Registry
	log       *zap.SugaredLogger
	endpoints []endpoint
}

// NewToolHandlers creates the per-tool HTTP layer.
func NewToolHandlers(registry *tools.Registry, log *zap.SugaredLogger) *ToolHandlers {
	return &ToolHandlers{
		registry: registry,
		log:      log,
		endpoints: []endpoint{
			{
				path: "spot-price",
				tool: tools.NameSpotPrice,
				params: []param{
					{"metal", kindMetal, true},
					{"currency", kindString, false},
					{"date", kindString, false},
				},
			},
			{
				path: "historical",
				tool: tools.NameHistorical,
				params: []param{
					{"metal", kindMetal, true},
					{"period", kindString, false},
					{"startDate", kindString, false},
					{"endDate", kindString, false},
				},
			},
			{
				path: "weight-value",
				tool: tools.NameWeightValue,
				params: []param{
					{"metal", kindMetal, true},
					{"weight", kindNumber, true},
					{"unit", kindString, true},
					{"karat", kindString, false},
					{"currency", kindString, false},
				},
				validate: func(args map[string]any) error {
					if w, ok := args["weight"].(float64); ok && w <= 0 {
						return fmt.Errorf("weight must be positive, got %g", w)
					}
					return nil
				},
			},
			{
				path: "search",
				tool: tools.NameWebSearch,
				params: []param{
					{"query", kindString, true},
				},
			},
			{
				path: "calculate",
				tool: tools.NameCalculate,
				params: []param{
					{"expression", kindString, true},
					{"description", kindString, false},
				},
			},
			{
				path: "chart",
				tool: tools.NameChartData,
				params: []param{
					{"metals", kindMetalList, true},
					{"period", kindString, false},
					{"startDate", kindString, false},
					{"endDate", kindString, false},
					{"currency", kindString, false},
					{"maxPoints", kindInt, false},
				},
			},
		},
	}
}

// Mount registers a GET and POST route for every endpoint under group.
func (h *ToolHandlers) Mount(group *gin.RouterGroup) {
	for _, ep := range h.endpoints {
		ep := ep
		group.GET("/"+ep.path, func(c *gin.Context) { h.handle(c, &ep, false) })
		group.POST("/"+ep.path, func(c *gin.Context) { h.handle(c, &ep, true) })
	}
}

func (h *ToolHandlers) handle(c *gin.Context, ep *endpoint, fromBody bool) {
	var args map[string]any
	var err error
	if fromBody {
		args, err = bindBodyArgs(c)
	} else {
		args, err = bindQueryArgs(c, ep.params)
	}
	if err == nil {
		err = checkArgs(ep, args)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ToolResponse{
			Success:   false,
			Tool:      ep.tool,
			Error:     err.Error(),
			Request:   args,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	payload, err := json.Marshal(args)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ToolResponse{
			Success:   false,
			Tool:      ep.tool,
			Error:     "unencodable arguments: " + err.Error(),
			Request:   args,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	result := h.registry.Execute(c.Request.Context(), ep.tool, string(payload))
	if !result.Success {
		h.log.Warnw("tool endpoint failed", "tool", ep.tool, "error", result.Error)
	}
	c.JSON(http.StatusOK, api.ToolResponse{
		Success:   result.Success,
		Tool:      ep.tool,
		Data:      result.Data,
		Error:     result.Error,
		Request:   args,
		Timestamp: time.Now().UTC(),
	})
}

func bindBodyArgs(c *gin.Context) (map[string]any, error) {
	args := make(map[string]any)
	if err := c.ShouldBindJSON(&args); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return args, nil
}

func bindQueryArgs(c *gin.Context, params []param) (map[string]any, error) {
	args := make(map[string]any)
	for _, p := range params {
		raw, ok := c.GetQuery(p.name)
		if !ok || raw == "" {
			continue
		}
		switch p.kind {
		case kindNumber:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return args, fmt.Errorf("parameter %q must be a number", p.name)
			}
			args[p.name] = v
		case kindInt:
			v, err := strconv.Atoi(raw)
			if err != nil {
				return args, fmt.Errorf("parameter %q must be an integer", p.name)
			}
			args[p.name] = v
		case kindMetalList:
			var metals []any
			for _, m := range strings.Split(raw, ",") {
				if m = strings.TrimSpace(m); m != "" {
					metals = append(metals, m)
				}
			}
			args[p.name] = metals
		default:
			args[p.name] = raw
		}
	}
	return args, nil
}

// checkArgs enforces presence of required parameters and kind-specific
// constraints so that malformed requests are rejected with a 400 before
// any tool (and any upstream call) runs.
func checkArgs(ep *endpoint, args map[string]any) error {
	for _, p := range ep.params {
		v, present := args[p.name]
		if !present || v == nil || v == "" {
			if p.required {
				return fmt.Errorf("missing required parameter %q", p.name)
			}
			continue
		}
		switch p.kind {
		case kindMetal:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("parameter %q must be a string", p.name)
			}
			if _, err := goldapi.NormalizeSymbol(s); err != nil {
				return err
			}
		case kindMetalList:
			list, ok := v.([]any)
			if !ok {
				return fmt.Errorf("parameter %q must be a list", p.name)
			}
			if len(list) == 0 || len(list) > 4 {
				return fmt.Errorf("parameter %q must name between 1 and 4 metals", p.name)
			}
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("parameter %q must be a list of strings", p.name)
				}
				if _, err := goldapi.NormalizeSymbol(s); err != nil {
					return err
				}
			}
		case kindNumber:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("parameter %q must be a number", p.name)
			}
		}
	}
	if ep.validate != nil {
		return ep.validate(args)
	}
	return nil
}
