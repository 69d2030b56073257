package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/system"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the learning companion",
	Long: `Starts the interactive chat loop. Type a message in Chinese or
English; meta-commands start with a slash:

  /status   show the journey report
  /history  show recent turns
  /reset    clear this session's history
  /help     list the meta-commands
  /quit     leave the chat

Ctrl-C cancels a running turn; a second Ctrl-C leaves the chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "default", "Session id for history grouping")
}

func runChat(ctx context.Context) error {
	rt, err := bootRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	renderer := newMarkdownRenderer()

	fmt.Println(bannerStyle.Render(fmt.Sprintf("Pointer %s · 你的学习伙伴", rt.Config.Version)))
	if rt.LLM == nil {
		fmt.Println(mutedStyle.Render("离线模式：关键词规划（配置 API key 可启用模型规划）"))
	}
	fmt.Println(mutedStyle.Render("输入消息开始对话，/help 查看命令。"))
	fmt.Println()

	// First Ctrl-C cancels the turn in flight; with nothing in flight
	// (or on the second one) the chat exits.
	var mu sync.Mutex
	var turnCancel context.CancelFunc

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		for range sigCh {
			mu.Lock()
			cancel := turnCancel
			turnCancel = nil
			mu.Unlock()

			if cancel != nil {
				cancel()
				fmt.Println(warnStyle.Render("\n已取消本轮。"))
				continue
			}
			fmt.Println(mutedStyle.Render("\n再见，下次继续学习！"))
			rt.Close()
			os.Exit(0)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("你 ›") + " ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runMetaCommand(ctx, rt, line); quit {
				fmt.Println(mutedStyle.Render("再见，下次继续学习！"))
				return nil
			}
			continue
		}

		turnCtx, cancel := context.WithCancel(ctx)
		mu.Lock()
		turnCancel = cancel
		mu.Unlock()

		turn, err := rt.Chat.ProcessMessage(turnCtx, chatSession, line)

		mu.Lock()
		turnCancel = nil
		mu.Unlock()
		cancel()

		if err != nil {
			fmt.Println(errStyle.Render("出错了：" + err.Error()))
			continue
		}

		fmt.Println(agentLabelStyle.Render("Pointer ›"))
		fmt.Println(renderMarkdown(renderer, turn.Response))
		if len(turn.ToolsUsed) > 0 && verbose {
			fmt.Println(mutedStyle.Render("  tools: " + strings.Join(turn.ToolsUsed, ", ")))
		}
	}
}

// runMetaCommand handles slash commands. Returns true when the chat
// should end.
func runMetaCommand(ctx context.Context, rt *system.Runtime, line string) bool {
	switch strings.Fields(line)[0] {
	case "/quit":
		return true

	case "/help":
		fmt.Println(mutedStyle.Render(strings.TrimSpace(`
/status   查看学习旅程状态
/history  查看最近的对话
/reset    清空当前会话历史
/help     显示本帮助
/quit     退出聊天`)))

	case "/status":
		status, err := rt.Journey.Status(ctx)
		if err != nil {
			fmt.Println(errStyle.Render("状态评估失败：" + err.Error()))
			return false
		}
		printStatus(status)

	case "/history":
		history, err := rt.Chat.History(chatSession, 10)
		if err != nil {
			fmt.Println(errStyle.Render("读取历史失败：" + err.Error()))
			return false
		}
		if len(history) == 0 {
			fmt.Println(mutedStyle.Render("这个会话还没有历史。"))
			return false
		}
		// Stored newest first; replay oldest first.
		for i := len(history) - 1; i >= 0; i-- {
			ix := history[i]
			fmt.Println(promptStyle.Render("你 › ") + ix.UserMessage)
			fmt.Println(agentLabelStyle.Render("Pointer › ") + firstLine(ix.Response))
		}

	case "/reset":
		n, err := rt.Chat.Reset(chatSession)
		if err != nil {
			fmt.Println(errStyle.Render("重置失败：" + err.Error()))
			return false
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("已清空 %d 条历史记录。", n)))

	default:
		fmt.Println(warnStyle.Render("未知命令 " + line + "，/help 查看可用命令。"))
	}
	return false
}

func newMarkdownRenderer() *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil
	}
	return renderer
}

// renderMarkdown renders with panic recovery; glamour chokes on some
// terminal edge cases and the reply must still reach the user.
func renderMarkdown(renderer *glamour.TermRenderer, content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if renderer != nil && content != "" {
		if rendered, err := renderer.Render(content); err == nil {
			return strings.TrimRight(rendered, "\n") + "\n"
		}
	}
	return content
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
