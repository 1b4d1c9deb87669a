package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wtwq666/smartdata/internal/model/chat"
	agentService "github.com/wtwq666/smartdata/internal/service/agent"
	chartService "github.com/wtwq666/smartdata/internal/service/chart"
	chatService "github.com/wtwq666/smartdata/internal/service/chat"
	"github.com/wtwq666/smartdata/pkg/utils"
)

// AgentProvider hands out the agent on demand, so the model client is only
// constructed when the first chat request arrives.
type AgentProvider func(ctx context.Context) (agentService.Invoker, error)

// Handler 聊天 SSE 流式接口的处理器，串起整个回答流程：
// 校验会话 → 落库用户消息 → 调用 Agent → 提取图表 → 落库助手消息 → 推送事件。
type Handler struct {
	chatSvc *chatService.Service
	agent   AgentProvider
	window  int
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, agent AgentProvider, contextWindow int) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		agent:   agent,
		window:  contextWindow,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleChatStream)
}

func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		// Rejected before any persistence.
		utils.RespondError(w, http.StatusBadRequest, "message 不能为空")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	ctx := r.Context()

	if _, err := h.chatSvc.GetSession(ctx, payload.SessionID); err != nil {
		h.sendError(w, flusher, "Session not found")
		return
	}

	if _, err := h.chatSvc.AppendMessage(ctx, payload.SessionID, chat.RoleUser, message, nil); err != nil {
		log.Printf("[chat] failed to save user message: %v", err)
		h.sendError(w, flusher, "failed to save message")
		return
	}

	// 从这里开始用户消息已经落库；后续失败不回滚，重试时它会作为上下文复用。
	raw, err := h.invokeAgent(ctx, payload.SessionID, message)
	if err != nil {
		log.Printf("[chat] agent invocation failed: %v", err)
		h.sendError(w, flusher, err.Error())
		return
	}

	text, option := chartService.Split(raw)

	saved, err := h.chatSvc.AppendMessage(ctx, payload.SessionID, chat.RoleAssistant, text, option)
	if err != nil {
		log.Printf("[chat] failed to save assistant message: %v", err)
		h.sendError(w, flusher, "failed to save message")
		return
	}

	// 事件顺序是对外契约：message → chart（可选）→ done。
	utils.SendSSEEvent(w, flusher, "message", map[string]string{"content": text})
	if option != nil {
		utils.SendSSEEvent(w, flusher, "chart", map[string]any{"option": option})
	}
	utils.SendSSEEvent(w, flusher, "done", map[string]string{"message_id": saved.ID})

	log.Printf("[chat] completed response for session=%s, message=%s", payload.SessionID, saved.ID)
}

// invokeAgent resolves the lazily-constructed agent, loads the bounded context
// window and runs the potentially long model call. Each request runs on its
// own goroutine, so a slow call here never stalls other sessions.
func (h *Handler) invokeAgent(ctx context.Context, sessionID, message string) (string, error) {
	invoker, err := h.agent(ctx)
	if err != nil {
		return "", err
	}

	turns, err := h.chatSvc.RecentTurns(ctx, sessionID, h.window)
	if err != nil {
		return "", err
	}

	return invoker.Invoke(ctx, message+chartService.Instruction, turns)
}

// sendError 推送唯一的终止错误事件；错误路径上不会再有 done。
func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, message string) {
	utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": message})
}
