package permission

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"

	"github.com/mpapenbr/pitstrategy/log"
	"github.com/mpapenbr/pitstrategy/pkg/auth"
)

type OpaPermissionEvaluator struct {
	query        rego.PreparedEvalQuery
	allowedChats []int64
	l            *log.Logger
}

type EvalRequest struct {
	Roles        []auth.Role `json:"roles"`
	Action       Permission  `json:"action"`
	Chat         bool        `json:"chat"`
	ChatID       int64       `json:"chatId,omitempty"`
	AllowedChats []int64     `json:"allowedChats"`
}

// check interface compliance
var _ PermissionEvaluator = (*OpaPermissionEvaluator)(nil)

//go:embed policy.rego
var policy []byte

//go:embed data.json
var data []byte

func NewOpaPermissionEvaluator(allowedChats ...int64) (*OpaPermissionEvaluator, error) {
	l := log.Default().Named("permission").Named("opa")
	store := inmem.NewFromReader(bytes.NewReader(data))
	r := rego.New(
		rego.Query("data.pitstrategy.authz.allow"),
		rego.Module("pitstrategy.authz", string(policy)),
		rego.Store(store),
	)
	query, err := r.PrepareForEval(context.Background())
	if err != nil {
		l.Error("failed to prepare query", log.ErrorField(err))
		return nil, err
	}
	return &OpaPermissionEvaluator{
		query:        query,
		allowedChats: append([]int64{}, allowedChats...),
		l:            l,
	}, nil
}

//nolint:whitespace // editor/linter issue
func (ope *OpaPermissionEvaluator) HasPermission(
	a auth.Authentication,
	perm Permission,
) bool {
	ope.l.Debug("HasPermission",
		log.String("name", a.Principal().Name()),
		log.Any("roles", a.Roles()),
		log.String("perm", string(perm)))
	return ope.eval(EvalRequest{
		Roles:        a.Roles(),
		Action:       perm,
		AllowedChats: ope.allowedChats,
	})
}

func (ope *OpaPermissionEvaluator) HasChatPermission(perm Permission, chatID int64) bool {
	ope.l.Debug("HasChatPermission",
		log.Int64("chat", chatID),
		log.String("perm", string(perm)))
	return ope.eval(EvalRequest{
		Roles:        []auth.Role{},
		Action:       perm,
		Chat:         true,
		ChatID:       chatID,
		AllowedChats: ope.allowedChats,
	})
}

func (ope *OpaPermissionEvaluator) eval(req EvalRequest) bool {
	rs, err := ope.query.Eval(context.Background(), rego.EvalInput(req))
	if err != nil {
		ope.l.Error("eval", log.ErrorField(err))
		return false
	}
	ope.l.Debug("res", log.Any("res", rs))
	return rs.Allowed()
}
