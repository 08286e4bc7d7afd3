package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ===================================
// Calculator tool
// ===================================

type CalculatorInput struct {
	Operation string  `json:"operation"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
}

type CalculatorOutput struct {
	Result float64 `json:"result"`
}

func createCalculatorTool() tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCalculator,
			Desc: "Perform basic arithmetic. Use this tool for any price calculation, discount, or totals instead of computing in your head.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"operation": {
					Type:     "string",
					Desc:     "One of: add, subtract, multiply, divide",
					Required: true,
				},
				"a": {
					Type:     "number",
					Desc:     "Left operand",
					Required: true,
				},
				"b": {
					Type:     "number",
					Desc:     "Right operand",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CalculatorInput) (*CalculatorOutput, error) {
			switch in.Operation {
			case "add":
				return &CalculatorOutput{Result: in.A + in.B}, nil
			case "subtract":
				return &CalculatorOutput{Result: in.A - in.B}, nil
			case "multiply":
				return &CalculatorOutput{Result: in.A * in.B}, nil
			case "divide":
				if in.B == 0 {
					return nil, fmt.Errorf("division by zero")
				}
				return &CalculatorOutput{Result: in.A / in.B}, nil
			default:
				return nil, fmt.Errorf("unsupported operation %q", in.Operation)
			}
		},
	)
}
