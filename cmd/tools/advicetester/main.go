package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/health-assistant/backend/internal/analysis/advice"
	"github.com/zhouzirui/health-assistant/backend/internal/config"
	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	"github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/service/translate"
	"github.com/zhouzirui/health-assistant/backend/internal/service/vision"
	"github.com/zhouzirui/health-assistant/backend/pkg/gemini"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn(log.Fields{"error": err.Error()}, "failed to load .env, using system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to load configuration")
	}

	dataPath := flag.String("data", cfg.Data.Path, "dataset CSV path")
	query := flag.String("query", "", "symptom text")
	lang := flag.String("lang", "en", "language code or name: en/te/hi")
	imagePath := flag.String("image", "", "optional jpg/jpeg/png to classify")
	timeout := flag.Duration("timeout", 45*time.Second, "overall timeout")

	flag.Parse()

	if *query == "" && *imagePath == "" {
		flag.Usage()
		log.Fatal(nil, "provide -query, -image or both")
	}

	code, ok := language.Parse(*lang)
	if !ok {
		log.Fatal(log.Fields{"lang": *lang}, "unsupported language")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	records, err := record.LoadFile(*dataPath)
	if err != nil {
		log.Fatal(log.Fields{"path": *dataPath}, err.Error())
	}

	var geminiClient gemini.IGemini
	if cfg.Gemini.Enabled() {
		geminiClient, err = gemini.NewGeminiClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			TextModel:   cfg.Gemini.Model,
			VisionModel: cfg.Gemini.VisionModel,
		})
		if err != nil {
			log.Fatal(log.Fields{"error": err.Error()}, "failed to initialize Gemini client")
		}
		defer geminiClient.Close()
	}

	translator, err := translate.NewFromConfig(ctx, cfg, geminiClient)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to initialize translator")
	}
	classifier, err := vision.NewFromConfig(cfg, geminiClient)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to initialize classifier")
	}

	chats := chat.NewService(chat.NewMemoryStore())
	session, err := chats.CreateSession(ctx)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "failed to create session")
	}

	sub := assistant.Submission{SessionID: session.ID, Language: code, Text: *query}
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatal(log.Fields{"path": *imagePath, "error": err.Error()}, "failed to read image")
		}
		img := vision.Image{Filename: filepath.Base(*imagePath), Data: data}
		if err := vision.Validate(&img); err != nil {
			log.Fatal(log.Fields{"path": *imagePath, "error": err.Error()}, "invalid image")
		}
		sub.Image = &img
	}

	svc := assistant.NewService(chats, advice.NewMatcher(record.NewMemoryStore(records)), translator, classifier)
	reply, err := svc.Submit(ctx, sub)
	if err != nil {
		log.Fatal(log.Fields{"error": err.Error()}, "submission failed")
	}

	fmt.Printf("translator: %s\n", translator.ProviderName())
	fmt.Printf("category:   %s\n", reply.BotTurn.Category)
	if reply.Text != nil {
		fmt.Printf("text match: %q (score %d)\n", reply.Text.Disease, reply.Text.Score)
	}
	if reply.Image != nil {
		fmt.Printf("image label: %q -> %q\n", reply.ImageLabel, reply.Image.Disease)
	}
	fmt.Println()
	fmt.Println(strings.ReplaceAll(reply.BotTurn.Text, "<br>", "\n"))
}
