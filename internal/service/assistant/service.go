package assistant

import (
	"context"
	"strings"

	"github.com/zhouzirui/health-assistant/backend/internal/analysis/advice"
	"github.com/zhouzirui/health-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/model/record"
	chatService "github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/service/translate"
	"github.com/zhouzirui/health-assistant/backend/internal/service/vision"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

const (
	textPrefix  = "From your text: "
	imagePrefix = "From your image: "
	partJoiner  = "<br>"
)

// Submission is one press of the submit button.
type Submission struct {
	SessionID string
	Language  language.Code
	Text      string
	Image     *vision.Image
}

// Reply reports what a submission appended to the log along with the advice
// each branch produced. UserTurn is nil for image-only submissions.
type Reply struct {
	UserTurn   *chat.Turn     `json:"userTurn,omitempty"`
	BotTurn    chat.Turn      `json:"botTurn"`
	Text       *advice.Advice `json:"text,omitempty"`
	Image      *advice.Advice `json:"image,omitempty"`
	ImageLabel string         `json:"imageLabel,omitempty"`
}

// Service runs the translate, match, translate back and record cycle.
type Service struct {
	chats      *chatService.Service
	matcher    *advice.Matcher
	translator *translate.Translator
	classifier vision.Classifier
}

func NewService(chats *chatService.Service, matcher *advice.Matcher, translator *translate.Translator, classifier vision.Classifier) *Service {
	if classifier == nil {
		classifier = vision.Stub{}
	}
	return &Service{
		chats:      chats,
		matcher:    matcher,
		translator: translator,
		classifier: classifier,
	}
}

// Submit processes the text branch then the image branch and appends the
// resulting turns together, so a failed write stores neither. When both
// branches run, the image category is the one stored on the bot turn.
func (s *Service) Submit(ctx context.Context, sub Submission) (Reply, error) {
	if sub.Text == "" && sub.Image == nil {
		return Reply{}, ErrEmptySubmission
	}
	lang := sub.Language
	if lang == "" {
		lang = language.English
	}

	if _, err := s.chats.GetSession(ctx, sub.SessionID); err != nil {
		return Reply{}, err
	}

	var (
		reply    Reply
		turns    []chat.Turn
		parts    []string
		category = record.DefaultCategory
	)

	if sub.Text != "" {
		query := sub.Text
		if !lang.IsEnglish() {
			query = s.translate(ctx, sub.Text, lang, language.English)
		}

		result := s.matcher.Match(query)
		response := s.localize(ctx, result.Response, lang)

		turns = append(turns, chat.Turn{
			SessionID: sub.SessionID,
			Role:      chat.RoleUser,
			Text:      sub.Text,
		})
		reply.Text = &result
		category = result.Category
		parts = append(parts, textPrefix+response)
	}

	if sub.Image != nil {
		label, err := s.classifier.Classify(ctx, *sub.Image)
		if err != nil {
			log.WithRequestID(ctx).WithError(err).WithField("session_id", sub.SessionID).Warn("[assistant] image classification failed")
			label = ""
		}

		result := s.matcher.Match(label)
		response := s.localize(ctx, result.Response, lang)

		reply.Image = &result
		reply.ImageLabel = label
		category = result.Category
		parts = append(parts, imagePrefix+response)
	}

	turns = append(turns, chat.Turn{
		SessionID: sub.SessionID,
		Role:      chat.RoleBot,
		Text:      strings.Join(parts, partJoiner),
		Category:  category,
	})

	appended, err := s.chats.AppendTurns(ctx, turns...)
	if err != nil {
		return Reply{}, err
	}
	if len(appended) == 2 {
		reply.UserTurn = &appended[0]
	}
	reply.BotTurn = appended[len(appended)-1]

	log.WithRequestID(ctx).WithFields(log.Fields{
		"session_id": sub.SessionID,
		"language":   lang,
		"category":   category,
		"text":       reply.Text != nil,
		"image":      reply.Image != nil,
	}).Info("[assistant] submission answered")

	return reply, nil
}

func (s *Service) localize(ctx context.Context, response string, lang language.Code) string {
	if lang.IsEnglish() {
		return response
	}
	return s.translate(ctx, response, language.English, lang)
}

// translate substitutes the input unchanged when the provider fails.
func (s *Service) translate(ctx context.Context, text string, source, target language.Code) string {
	result := s.translator.Translate(ctx, text, source, target)
	if !result.OK() {
		log.WithRequestID(ctx).WithError(result.Err).WithFields(log.Fields{
			"provider": s.translator.ProviderName(),
			"source":   source,
			"target":   target,
		}).Warn("[assistant] translation failed, using original text")
	}
	return result.OrElse(text)
}
