package support

import (
	"github.com/hupe1980/supportmesh/agent"
	"github.com/hupe1980/supportmesh/intent"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/model"
	"github.com/hupe1980/supportmesh/tool"
)

// Participant names.
const (
	PlanningAgent       = "PlanningAgent"
	ProductInquiryAgent = "ProductInquiryAgent"
	OrderPlacementAgent = "OrderPlacementAgent"
	OrderInquiryAgent   = "OrderInquiryAgent"
	ComplaintAgent      = "ComplaintAgent"
	ResponseAgent       = "ResponseAgent"
)

const planningInstruction = `You are a planning agent.
Your job is to identify customer requests and delegate them to the correct agent.
Available agents:
    - ProductInquiryAgent: Handles product-related questions
    - OrderPlacementAgent: Handles order placement
    - OrderInquiryAgent: Checks order status
    - ComplaintAgent: Registers customer complaints
    - ResponseAgent: Responsible for responding to the user.

Once a task is completed by another agent, delegate the response to the **ResponseAgent** to format and send the final reply to the user.

Format task assignments as:
1. <agent> : <task>`

const orderPlacementInstruction = `You process orders using the order_placement_tool.

If any details are missing to call the order_placement_tool, ask the customer for the missing details.`

const responseInstruction = `Your job is to format the response provided by other agents and return it to the user in a clear and friendly manner.
Always end the conversation with 'TERMINATE'.

Example:
- If an order is placed, confirm it and include the order ID.
- If a product inquiry is made, summarize the details.
- If an order status is checked, summarize the response.
- If a complaint is registered, confirm it with the complaint ID.`

type roleDef struct {
	name        string
	description string
	instruction string
	tools       func(*Tools) []tool.Tool
}

var roster = []roleDef{
	{
		name:        PlanningAgent,
		description: "An agent that plans customer support tasks and delegates to appropriate agents.",
		instruction: planningInstruction,
	},
	{
		name:        ProductInquiryAgent,
		description: "Handles product inquiries.",
		instruction: "You provide product information using the product_inquiry_tool.",
		tools:       func(t *Tools) []tool.Tool { return []tool.Tool{t.ProductInquiryTool()} },
	},
	{
		name:        OrderPlacementAgent,
		description: "Handles order placement.",
		instruction: orderPlacementInstruction,
		tools:       func(t *Tools) []tool.Tool { return []tool.Tool{t.OrderPlacementTool()} },
	},
	{
		name:        OrderInquiryAgent,
		description: "Handles order status inquiries.",
		instruction: "You check order status using the order_status_tool.",
		tools:       func(t *Tools) []tool.Tool { return []tool.Tool{t.OrderStatusTool()} },
	},
	{
		name:        ComplaintAgent,
		description: "Handles customer complaints.",
		instruction: "You register complaints using the complaint_registration_tool.",
		tools:       func(t *Tools) []tool.Tool { return []tool.Tool{t.ComplaintRegistrationTool()} },
	},
	{
		name:        ResponseAgent,
		description: "Formats responses and sends them to the user.",
		instruction: responseInstruction,
	},
}

// NewAssistants builds the six support assistants, in team order, on the
// given model.
func NewAssistants(llm model.Model, tools *Tools, logger logging.Logger, recorder agent.ToolRecorder) []*agent.Assistant {
	out := make([]*agent.Assistant, 0, len(roster))
	for _, def := range roster {
		out = append(out, agent.NewAssistant(def.name, llm, func(o *agent.Options) {
			o.Description = def.description
			o.Instruction = agent.NewInstructionFromText(def.instruction)
			if def.tools != nil {
				o.Tools = def.tools(tools)
			}
			o.Logger = logger
			o.Recorder = recorder
		}))
	}
	return out
}

// IntentRoutes maps each intent to the specialist handling it.
func IntentRoutes() map[intent.Intent]string {
	return map[intent.Intent]string{
		intent.ProductInquiry: ProductInquiryAgent,
		intent.OrderPlacement: OrderPlacementAgent,
		intent.OrderStatus:    OrderInquiryAgent,
		intent.Complaint:      ComplaintAgent,
	}
}
