// Command-line entrypoint for a local Theia coaching session
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"theia/theia/config"
	"theia/theia/services/events"
	"theia/theia/services/llm"
	"theia/theia/services/session"
	"theia/theia/services/title"
	"theia/theia/sources/psql"
	"theia/theia/sources/psql/dao"
	"theia/theia/utils/logging"
	"theia/theia/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	args := os.Args[1:]
	if len(args) < 1 || args[0] != "connect" {
		fmt.Println("Theia CLI usage:")
		fmt.Println("  theia connect [chat_id]   # Open a coaching session (new chat when no id is given)")
		os.Exit(1)
	}

	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	userDAO := dao.NewUserDAO(db.DB)
	chatDAO := dao.NewChatDAO(db.DB)
	messageDAO := dao.NewMessageDAO(db.DB)
	contextDAO := dao.NewContextItemDAO(db.DB)

	gateway := llm.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.AppURL)
	bus := events.NewBus()
	titleGen := title.NewGenerator(chatDAO, gateway, cfg.TitleModel, bus)

	unsubscribe := bus.Subscribe(func(u types.TitleUpdate) {
		fmt.Printf("\n[conversation titled: %s]\n", u.NewTitle)
	})
	defer unsubscribe()

	userID := 1
	var chatID string
	if len(args) >= 2 {
		chatID = args[1]
	} else {
		chat, err := chatDAO.CreateChat(ctx, uuid.NewString(), userID)
		if err != nil {
			logging.ErrorLogger.Error("chat create error", zap.Error(err))
			os.Exit(1)
		}
		chatID = chat.ID
	}

	orch := session.NewOrchestrator(session.Config{
		ChatID:                   chatID,
		UserID:                   userID,
		Model:                    cfg.ChatModel,
		TitleTriggerUserMessages: cfg.TitleTriggerUserMessages,
	}, messageDAO, userDAO, contextDAO, gateway, titleGen)
	orch.Initialize(ctx)
	defer orch.Close()

	fmt.Println("Session:", chatID)
	fmt.Println("Press Enter on an empty line to step through the welcome, type 'exit' to quit.")
	fmt.Println()
	printState(orch.CurrentState(), 0)

	scanner := bufio.NewScanner(os.Stdin)
	shown := len(orch.CurrentState().Transcript)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		// Blank lines are real input here: they advance the welcome script.
		orch.Submit(context.Background(), line, "")
		state := orch.CurrentState()
		printState(state, shown)
		shown = len(state.Transcript)
	}
}

func printState(state types.SessionState, alreadyShown int) {
	if state.LoadError != "" {
		fmt.Println(state.LoadError)
		return
	}
	if len(state.TutorialView) > 0 {
		for _, step := range state.TutorialView {
			fmt.Printf("theia> %s\n", step)
		}
		return
	}
	for _, entry := range state.Transcript[alreadyShown:] {
		fmt.Printf("%s> %s\n", entry.Sender, entry.Content)
	}
}
