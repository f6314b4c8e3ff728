package domain

import "github.com/shopspring/decimal"

// ConversationStep identifies where a user is inside a multi-step form.
type ConversationStep string

const (
	StepTaskCreateTitle       ConversationStep = "task_create_title"
	StepTaskCreateDescription ConversationStep = "task_create_description"
	StepTaskCreateReward      ConversationStep = "task_create_reward"
	StepTaskCreateDuration    ConversationStep = "task_create_duration"

	StepTaskEditTitle       ConversationStep = "task_edit_title"
	StepTaskEditDescription ConversationStep = "task_edit_description"
	StepTaskEditReward      ConversationStep = "task_edit_reward"
	StepTaskEditDuration    ConversationStep = "task_edit_duration"

	StepWithdrawAmount ConversationStep = "withdraw_amount"
	StepWithdrawMethod ConversationStep = "withdraw_method"

	StepSupportMessage ConversationStep = "support_message"
	StepAdminReply     ConversationStep = "admin_reply"
	StepBroadcast      ConversationStep = "broadcast"
	StepDirectMessage  ConversationStep = "direct_message"

	StepWalletLookup ConversationStep = "wallet_lookup"
	StepSetBalance   ConversationStep = "set_balance"
	StepRejectReason ConversationStep = "reject_reason"
)

// TaskDraft accumulates answers of the task create/edit forms. Pointer fields
// distinguish "keep current" (nil) from an explicit new value.
type TaskDraft struct {
	Title           *string          `json:"title,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Reward          *decimal.Decimal `json:"reward,omitempty"`
	DurationSeconds *int             `json:"duration_seconds,omitempty"`
}

// Conversation is the per-user state of an in-progress form. It is advanced by
// one inbound message at a time and cleared on completion or cancel.
type Conversation struct {
	Step         ConversationStep `json:"step"`
	TaskID       int64            `json:"task_id,omitempty"`
	TargetUserID int64            `json:"target_user_id,omitempty"`
	RequestID    int64            `json:"request_id,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
	Draft        TaskDraft        `json:"draft"`
}
