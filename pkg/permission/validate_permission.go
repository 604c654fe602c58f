package permission

import (
	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/auth"
)

type Permission string

const (
	PermissionCalculate  Permission = "calculate"
	PermissionReadPlan   Permission = "read-plan"
	PermissionDeletePlan Permission = "delete-plan"
	PermissionPurgePlans Permission = "purge-plans"
)

// IsPublic reports whether p is granted to everyone even without an evaluator.
func (p Permission) IsPublic() bool {
	return p == PermissionCalculate || p == PermissionReadPlan
}

type PermissionEvaluator interface {
	HasPermission(a auth.Authentication, perm Permission) bool
	// HasChatPermission checks requests issued by a chat
	HasChatPermission(perm Permission, chatID int64) bool
}

// NewPermissionEvaluator returns nil if the policy could not be prepared.
// Chats in allowedChats restrict the chat permissions, none means all chats.
func NewPermissionEvaluator(allowedChats ...int64) PermissionEvaluator {
	if ret, err := NewOpaPermissionEvaluator(allowedChats...); err != nil {
		log.Default().Error("failed to create permission evaluator", log.ErrorField(err))
		return nil
	} else {
		return ret
	}
}
