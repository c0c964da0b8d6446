// Package dialogue drives the step-by-step conversation that collects
// passport data, the contract amount and the first payment date, and hands
// the confirmed draft to the contract service.
package dialogue

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	contract "github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	"github.com/pravodoc/pravodoc-backend/internal/contract/format"
	contractsvc "github.com/pravodoc/pravodoc-backend/internal/contract/service"
	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/dialogue/session"
	docdomain "github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/passport/manual"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/i18n"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

// Commands accepted in any state.
const (
	CommandStart       = "/start"
	CommandManual      = "/manual"
	CommandGetContract = "/get_contract"
)

// Actions are the buttons offered with a reply.
const (
	ActionConfirmPassport = "confirm_passport"
	ActionRejectPassport  = "reject_passport"
	ActionConfirmContract = "confirm_contract"
	ActionCancelContract  = "cancel_contract"
)

// DocumentURL is where a client downloads the documents of its last contract.
const DocumentURL = "/api/v1/contracts/last/"

// Button is an action the client may send back
type Button struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Document is a generated file attached to a reply
type Document struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Path   string `json:"-"`
	URL    string `json:"url"`
}

// Reply is what the user sees after one input
type Reply struct {
	State     session.State `json:"state"`
	Messages  []string      `json:"messages"`
	Buttons   []Button      `json:"buttons,omitempty"`
	Documents []Document    `json:"documents,omitempty"`
}

func (r *Reply) say(msgs ...string) {
	r.Messages = append(r.Messages, msgs...)
}

// PassportService recognizes passport photos and parses typed passport data
type PassportService interface {
	Recognize(ctx context.Context, userID string, image []byte) (*docdomain.Result, error)
	ParseManual(ctx context.Context, userID, text string) (*docdomain.Result, error)
}

// ContractService numbers, issues and looks up contracts
type ContractService interface {
	Prepare(ctx context.Context, rec passport.Record, total int64, firstPayment time.Time) (*contract.Contract, error)
	Issue(ctx context.Context, userID string, c *contract.Contract) (*contract.Entry, error)
	LastContract(ctx context.Context, userID string) (*contract.Entry, error)
}

// Engine runs the dialogue. Inputs of one user are handled one at a time.
type Engine struct {
	passports PassportService
	contracts ContractService
	store     session.Store
	log       *logger.Logger

	locksMu sync.Mutex
	locks   map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates a dialogue engine
func NewEngine(passports PassportService, contracts ContractService, store session.Store, log *logger.Logger) *Engine {
	return &Engine{
		passports: passports,
		contracts: contracts,
		store:     store,
		log:       log.WithComponent("dialogue"),
		locks:     make(map[string]*userLock),
	}
}

// lock serializes the inputs of one user. Other users never wait on it,
// even while a photo is being recognized. The entry is dropped once nobody
// holds or waits for it.
func (e *Engine) lock(userID string) func() {
	e.locksMu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, userID)
		}
		e.locksMu.Unlock()
	}
}

// turn loads the user's session, applies fn and stores the outcome. fn
// returns true when the session should be dropped instead of saved.
func (e *Engine) turn(ctx context.Context, userID string, fn func(s *session.Session, r *Reply) (bool, error)) (*Reply, error) {
	defer e.lock(userID)()

	s, err := e.store.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	drop, err := fn(s, reply)
	if err != nil {
		return nil, err
	}

	if drop {
		if err := e.store.Delete(ctx, userID); err != nil {
			return nil, err
		}
		reply.State = session.StateIdle
		return reply, nil
	}

	if err := e.store.Save(ctx, userID, s); err != nil {
		return nil, err
	}
	reply.State = s.State
	return reply, nil
}

// HandleText processes a command or a typed answer
func (e *Engine) HandleText(ctx context.Context, userID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	l := i18n.LocalizerFromContext(ctx)

	return e.turn(ctx, userID, func(s *session.Session, r *Reply) (bool, error) {
		switch strings.ToLower(text) {
		case CommandStart:
			s.Reset(session.StateWaitingPassport)
			r.say(l.T("dialogue.start"))
			return false, nil
		case CommandManual:
			s.Reset(session.StateWaitingManual)
			r.say(l.T("dialogue.manual_prompt", map[string]string{"template": manual.Template}))
			return false, nil
		case CommandGetContract:
			return false, e.sendLast(ctx, l, userID, r)
		}

		switch s.State {
		case session.StateWaitingManual:
			e.manualData(ctx, l, userID, text, s, r)
		case session.StateWaitingAmount:
			amount, ok := parseAmount(text)
			if !ok {
				r.say(l.T("dialogue.amount_invalid"))
				break
			}
			if amount > schedule.MaxTotal {
				r.say(l.T("dialogue.amount_too_large", map[string]string{"max": format.Amount(schedule.MaxTotal)}))
				break
			}
			s.TotalAmount = amount
			s.State = session.StateWaitingFirstPayment
			r.say(l.T("dialogue.first_payment_prompt"))
		case session.StateWaitingFirstPayment:
			e.firstPayment(ctx, l, userID, text, s, r)
		case session.StatePassportConfirmation, session.StateConfirmation:
			r.say(l.T("dialogue.unknown_action"))
			r.Buttons = buttons(l, s.State)
		default:
			r.say(l.T("dialogue.waiting_passport"))
		}
		return false, nil
	})
}

// HandleAction processes a pressed button
func (e *Engine) HandleAction(ctx context.Context, userID, action string) (*Reply, error) {
	l := i18n.LocalizerFromContext(ctx)

	return e.turn(ctx, userID, func(s *session.Session, r *Reply) (bool, error) {
		switch {
		case action == ActionConfirmPassport && s.State == session.StatePassportConfirmation && s.Passport != nil:
			s.State = session.StateWaitingAmount
			r.say(l.T("dialogue.passport_confirmed"))

		case action == ActionRejectPassport && s.State == session.StatePassportConfirmation:
			s.Reset(session.StateWaitingManual)
			r.say(l.T("dialogue.manual_retry", map[string]string{"template": manual.Template}))

		case action == ActionConfirmContract && s.State == session.StateConfirmation && s.Contract != nil:
			entry, err := e.contracts.Issue(ctx, userID, s.Contract)
			if err != nil {
				e.log.WithUserID(userID).Error().Err(err).
					Str("contract_number", s.Contract.Number).
					Msg("failed to issue contract")
				r.say(l.T("dialogue.contract_failed"))
				r.Buttons = buttons(l, s.State)
				return false, nil
			}
			r.say(l.T("dialogue.contract_ready"))
			r.Documents = documents(entry)
			return true, nil

		case action == ActionCancelContract && s.State == session.StateConfirmation:
			s.Reset(session.StateWaitingPassport)
			r.say(l.T("dialogue.contract_cancelled"))

		default:
			r.say(l.T("dialogue.unknown_action"))
			r.Buttons = buttons(l, s.State)
		}
		return false, nil
	})
}

// HandlePhoto recognizes a passport photo. Photos are accepted only while
// no passport has been collected yet. image is zeroed by the passport service.
func (e *Engine) HandlePhoto(ctx context.Context, userID string, image []byte) (*Reply, error) {
	l := i18n.LocalizerFromContext(ctx)

	return e.turn(ctx, userID, func(s *session.Session, r *Reply) (bool, error) {
		switch s.State {
		case session.StateIdle, session.StateWaitingPassport, session.StateWaitingManual:
		default:
			r.say(l.T("dialogue.unknown_action"))
			r.Buttons = buttons(l, s.State)
			return false, nil
		}

		r.say(l.T("dialogue.photo_received"))
		log := e.log.WithUserID(userID)

		result, err := e.passports.Recognize(ctx, userID, image)
		if err != nil {
			if errors.IsBadRequest(err) {
				return false, err
			}
			if errors.IsRecognition(err) {
				log.Info().Err(err).Msg("passport photo not recognized")
				r.say(l.T("dialogue.ocr_failed"))
			} else {
				log.Error().Err(err).Msg("passport recognition error")
				r.say(l.T("dialogue.ocr_unexpected"))
			}
			s.Reset(session.StateWaitingManual)
			r.say(l.T("dialogue.manual_prompt", map[string]string{"template": manual.Template}))
			return false, nil
		}

		if !result.Complete() {
			s.Reset(session.StateWaitingManual)
			r.say(
				l.T("dialogue.ocr_partial", map[string]string{
					"recognized": joinOrDash(result.Diagnostics.RecognizedFields),
					"missing":    joinOrDash(result.Diagnostics.MissingFields),
				}),
				l.T("dialogue.manual_prompt", map[string]string{"template": manual.Template}),
			)
			return false, nil
		}

		confirmPassport(l, *result.Record, s, r)
		return false, nil
	})
}

func (e *Engine) manualData(ctx context.Context, l *i18n.Localizer, userID, text string, s *session.Session, r *Reply) {
	result, err := e.passports.ParseManual(ctx, userID, text)
	if err == nil && !result.Complete() {
		err = errors.Format("Не удалось определить поля", result.Diagnostics.MissingFields...)
	}
	if err != nil {
		reason := err.Error()
		var appErr *errors.AppError
		if errors.As(err, &appErr) {
			reason = appErr.Message
		}
		r.say(l.T("dialogue.manual_failed", map[string]string{"reason": reason}))
		return
	}
	confirmPassport(l, *result.Record, s, r)
}

func (e *Engine) firstPayment(ctx context.Context, l *i18n.Localizer, userID, text string, s *session.Session, r *Reply) {
	date, err := dates.ParseDayFirst(text)
	if err != nil {
		r.say(l.T("dialogue.date_invalid"))
		return
	}
	if s.Passport == nil {
		s.Reset(session.StateWaitingPassport)
		r.say(l.T("dialogue.waiting_passport"))
		return
	}

	c, err := e.contracts.Prepare(ctx, *s.Passport, s.TotalAmount, date)
	if err != nil {
		e.log.WithUserID(userID).Error().Err(err).Msg("failed to prepare contract")
		r.say(l.T("dialogue.contract_failed"))
		return
	}

	s.FirstPayment = date
	s.Contract = c
	s.State = session.StateConfirmation
	r.say(ContractSummary(l, c))
	r.Buttons = buttons(l, s.State)
}

func (e *Engine) sendLast(ctx context.Context, l *i18n.Localizer, userID string, r *Reply) error {
	entry, err := e.contracts.LastContract(ctx, userID)
	switch {
	case errors.Is(err, contractsvc.ErrFilesMissing):
		r.say(l.T("dialogue.files_missing"))
		return nil
	case errors.IsNotFound(err):
		r.say(l.T("dialogue.no_contracts"))
		return nil
	case err != nil:
		return err
	}
	r.say(l.T("dialogue.sending_last"))
	r.Documents = documents(entry)
	return nil
}

func confirmPassport(l *i18n.Localizer, rec passport.Record, s *session.Session, r *Reply) {
	s.Reset(session.StatePassportConfirmation)
	s.Passport = &rec
	s.PhotoPath = rec.PhotoPath
	r.say(PassportSummary(l, rec))
	r.Buttons = buttons(l, s.State)
}

// PassportSummary lists the passport fields for confirmation
func PassportSummary(l *i18n.Localizer, rec passport.Record) string {
	lines := []string{
		l.T("dialogue.passport_summary_title"),
		"ФИО: " + rec.FullName,
		fmt.Sprintf("Серия и номер: %s %s", rec.Series, rec.Number),
		"Кем выдан: " + rec.IssuedBy,
		"Дата выдачи: " + dates.FormatRussian(rec.IssuedDate),
	}
	if rec.DivisionCode != "" {
		lines = append(lines, "Код подразделения: "+rec.DivisionCode)
	}
	return strings.Join(lines, "\n")
}

// ContractSummary lists the contract terms for confirmation
func ContractSummary(l *i18n.Localizer, c *contract.Contract) string {
	rec := c.Passport
	return strings.Join([]string{
		l.T("dialogue.contract_summary_title"),
		"ФИО: " + rec.FullName,
		fmt.Sprintf("Паспорт: серия %s, номер %s", rec.Series, rec.Number),
		fmt.Sprintf("Кем выдан: %s %s", rec.IssuedBy, dates.FormatRussian(rec.IssuedDate)),
		"Сумма договора: " + format.Rubles(c.TotalAmount),
		"Дата первого платежа: " + dates.FormatRussian(c.FirstPayment),
		"Номер договора: " + c.Number,
	}, "\n")
}

func buttons(l *i18n.Localizer, state session.State) []Button {
	switch state {
	case session.StatePassportConfirmation:
		return []Button{
			{Text: l.T("dialogue.button_confirm_passport"), Action: ActionConfirmPassport},
			{Text: l.T("dialogue.button_reject_passport"), Action: ActionRejectPassport},
		}
	case session.StateConfirmation:
		return []Button{
			{Text: l.T("dialogue.button_confirm_contract"), Action: ActionConfirmContract},
			{Text: l.T("dialogue.button_cancel_contract"), Action: ActionCancelContract},
		}
	}
	return nil
}

func documents(entry *contract.Entry) []Document {
	var docs []Document
	add := func(format, path string) {
		if path == "" {
			return
		}
		docs = append(docs, Document{
			Name:   filepath.Base(path),
			Format: format,
			Path:   path,
			URL:    DocumentURL + format,
		})
	}
	add("docx", entry.DocxPath)
	add("pdf", entry.PDFPath)
	add("xlsx", entry.XlsxPath)
	return docs
}

// parseAmount keeps the digits of s, so "132 000 руб." reads as 132000.
func parseAmount(s string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func joinOrDash(labels []string) string {
	if len(labels) == 0 {
		return "—"
	}
	return strings.Join(labels, ", ")
}
