package dialogue_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contract "github.com/pravodoc/pravodoc-backend/internal/contract/domain"
	contractsvc "github.com/pravodoc/pravodoc-backend/internal/contract/service"
	"github.com/pravodoc/pravodoc-backend/internal/dates"
	"github.com/pravodoc/pravodoc-backend/internal/dialogue"
	"github.com/pravodoc/pravodoc-backend/internal/dialogue/session"
	docdomain "github.com/pravodoc/pravodoc-backend/internal/docprocessing/domain"
	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
	"github.com/pravodoc/pravodoc-backend/internal/passport/manual"
	"github.com/pravodoc/pravodoc-backend/internal/schedule"
	"github.com/pravodoc/pravodoc-backend/pkg/errors"
	"github.com/pravodoc/pravodoc-backend/pkg/i18n"
	"github.com/pravodoc/pravodoc-backend/pkg/logger"
)

type stubPassports struct {
	result *docdomain.Result
	err    error

	// started and release, when set, hold Recognize until the test lets go
	started chan string
	release chan struct{}
}

func (s *stubPassports) Recognize(_ context.Context, userID string, _ []byte) (*docdomain.Result, error) {
	if s.started != nil {
		s.started <- userID
	}
	if s.release != nil {
		<-s.release
	}
	return s.result, s.err
}

func (s *stubPassports) ParseManual(_ context.Context, _ string, text string) (*docdomain.Result, error) {
	rec, err := manual.Parse(text)
	if err != nil {
		return nil, err
	}
	return &docdomain.Result{Source: docdomain.SourceManual, Processor: "manual", Record: &rec}, nil
}

type stubContracts struct {
	mu       sync.Mutex
	counter  int
	issueErr error
	lastErr  error
	last     map[string]*contract.Entry
}

func (s *stubContracts) Prepare(_ context.Context, rec passport.Record, total int64, firstPayment time.Time) (*contract.Contract, error) {
	payments, err := schedule.Build(firstPayment, total)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return &contract.Contract{
		Number:       contract.Number(s.counter, rec.FullName),
		Passport:     rec,
		TotalAmount:  total,
		FirstPayment: firstPayment,
		Payments:     payments,
		Date:         dates.Date(2024, time.March, 1),
	}, nil
}

func (s *stubContracts) Issue(_ context.Context, userID string, c *contract.Contract) (*contract.Entry, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	base := "/contracts/" + c.Passport.SlugName() + "/" + c.BaseName()
	entry := contract.NewEntry(userID, c, contract.Files{Docx: base + ".docx", PDF: base + ".pdf"}, time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[string]*contract.Entry)
	}
	s.last[userID] = entry
	return entry, nil
}

func (s *stubContracts) LastContract(_ context.Context, userID string) (*contract.Entry, error) {
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.last[userID]
	if !ok {
		return nil, errors.NotFound("contract")
	}
	return entry, nil
}

type fixture struct {
	engine    *dialogue.Engine
	passports *stubPassports
	contracts *stubContracts
	store     *session.MemoryStore
	l         *i18n.Localizer
	ctx       context.Context
}

func newFixture() *fixture {
	f := &fixture{
		passports: &stubPassports{},
		contracts: &stubContracts{},
		store:     session.NewMemoryStore(time.Hour),
		l:         i18n.NewLocalizer(i18n.LocaleRussian),
		ctx:       i18n.WithLocale(context.Background(), i18n.LocaleRussian),
	}
	f.engine = dialogue.NewEngine(f.passports, f.contracts, f.store, logger.Nop())
	return f
}

func (f *fixture) text(t *testing.T, userID, text string) *dialogue.Reply {
	t.Helper()
	reply, err := f.engine.HandleText(f.ctx, userID, text)
	require.NoError(t, err)
	return reply
}

func (f *fixture) action(t *testing.T, userID, action string) *dialogue.Reply {
	t.Helper()
	reply, err := f.engine.HandleAction(f.ctx, userID, action)
	require.NoError(t, err)
	return reply
}

func (f *fixture) photo(t *testing.T, userID string) *dialogue.Reply {
	t.Helper()
	reply, err := f.engine.HandlePhoto(f.ctx, userID, []byte("image"))
	require.NoError(t, err)
	return reply
}

func client() passport.Record {
	return passport.Record{
		FullName:   "Иванов Иван Иванович",
		Series:     "4510",
		Number:     "123456",
		IssuedBy:   "ОВД района Арбат города Москвы",
		IssuedDate: dates.Date(2015, time.June, 1),
	}
}

func actions(buttons []dialogue.Button) []string {
	var out []string
	for _, b := range buttons {
		out = append(out, b.Action)
	}
	return out
}

// reachConfirmation walks a user through manual entry up to the contract summary
func (f *fixture) reachConfirmation(t *testing.T, userID string) *dialogue.Reply {
	t.Helper()
	f.text(t, userID, dialogue.CommandManual)
	f.text(t, userID, manual.Format(client()))
	f.action(t, userID, dialogue.ActionConfirmPassport)
	f.text(t, userID, "132000")
	return f.text(t, userID, "25.03.2024")
}

func TestEngine_ManualFlow(t *testing.T) {
	f := newFixture()

	reply := f.text(t, "u1", "/start")
	assert.Equal(t, session.StateWaitingPassport, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.start")}, reply.Messages)

	reply = f.text(t, "u1", "/manual")
	assert.Equal(t, session.StateWaitingManual, reply.State)
	require.Len(t, reply.Messages, 1)
	assert.Contains(t, reply.Messages[0], manual.Template)

	reply = f.text(t, "u1", manual.Format(client()))
	assert.Equal(t, session.StatePassportConfirmation, reply.State)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, strings.Join([]string{
		f.l.T("dialogue.passport_summary_title"),
		"ФИО: Иванов Иван Иванович",
		"Серия и номер: 4510 123456",
		"Кем выдан: ОВД района Арбат города Москвы",
		"Дата выдачи: 1 июня 2015 г.",
	}, "\n"), reply.Messages[0])
	assert.Equal(t, []string{dialogue.ActionConfirmPassport, dialogue.ActionRejectPassport}, actions(reply.Buttons))
	assert.Equal(t, "Всё верно", reply.Buttons[0].Text)

	reply = f.action(t, "u1", dialogue.ActionConfirmPassport)
	assert.Equal(t, session.StateWaitingAmount, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.passport_confirmed")}, reply.Messages)

	reply = f.text(t, "u1", "сто тысяч")
	assert.Equal(t, session.StateWaitingAmount, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.amount_invalid")}, reply.Messages)

	reply = f.text(t, "u1", "10 000 000 000")
	assert.Equal(t, session.StateWaitingAmount, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.amount_too_large", map[string]string{"max": "6 042 000"})}, reply.Messages)

	reply = f.text(t, "u1", "132 000 руб.")
	assert.Equal(t, session.StateWaitingFirstPayment, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.first_payment_prompt")}, reply.Messages)

	reply = f.text(t, "u1", "32.13.2024")
	assert.Equal(t, session.StateWaitingFirstPayment, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.date_invalid")}, reply.Messages)

	reply = f.text(t, "u1", "25.03.2024")
	assert.Equal(t, session.StateConfirmation, reply.State)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, strings.Join([]string{
		f.l.T("dialogue.contract_summary_title"),
		"ФИО: Иванов Иван Иванович",
		"Паспорт: серия 4510, номер 123456",
		"Кем выдан: ОВД района Арбат города Москвы 1 июня 2015 г.",
		"Сумма договора: 132 000 ₽",
		"Дата первого платежа: 25 марта 2024 г.",
		"Номер договора: 00001-ИИИ",
	}, "\n"), reply.Messages[0])
	assert.Equal(t, []string{dialogue.ActionConfirmContract, dialogue.ActionCancelContract}, actions(reply.Buttons))

	reply = f.action(t, "u1", dialogue.ActionConfirmContract)
	assert.Equal(t, session.StateIdle, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.contract_ready")}, reply.Messages)
	require.Len(t, reply.Documents, 2)
	assert.Equal(t, "docx", reply.Documents[0].Format)
	assert.Equal(t, "/api/v1/contracts/last/docx", reply.Documents[0].URL)
	assert.Equal(t, "dogovor_00001-ИИИ_Иванов_Иван_Иванович.docx", reply.Documents[0].Name)
	assert.Equal(t, "/api/v1/contracts/last/pdf", reply.Documents[1].URL)
	assert.Zero(t, f.store.Len())
}

func TestEngine_TextOutsideFlow(t *testing.T) {
	f := newFixture()

	reply := f.text(t, "u1", "привет")
	assert.Equal(t, session.StateIdle, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.waiting_passport")}, reply.Messages)

	f.text(t, "u1", "/manual")
	f.text(t, "u1", manual.Format(client()))
	reply = f.text(t, "u1", "да")
	assert.Equal(t, session.StatePassportConfirmation, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.unknown_action")}, reply.Messages)
	assert.Len(t, reply.Buttons, 2)
}

func TestEngine_ManualRejected(t *testing.T) {
	f := newFixture()
	f.text(t, "u1", "/manual")

	reply := f.text(t, "u1", "ФИО: Иванов Иван Иванович\nСерия: 4510")
	assert.Equal(t, session.StateWaitingManual, reply.State)
	require.Len(t, reply.Messages, 1)
	assert.Contains(t, reply.Messages[0], "Не удалось определить поля: номер, кем выдан, дата выдачи")
}

func TestEngine_RejectPassport(t *testing.T) {
	f := newFixture()
	f.text(t, "u1", "/manual")
	f.text(t, "u1", manual.Format(client()))

	reply := f.action(t, "u1", dialogue.ActionRejectPassport)
	assert.Equal(t, session.StateWaitingManual, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.manual_retry", map[string]string{"template": manual.Template})}, reply.Messages)

	s, err := f.store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, s.Passport)
}

func TestEngine_ActionInWrongState(t *testing.T) {
	tests := []string{
		dialogue.ActionConfirmPassport,
		dialogue.ActionRejectPassport,
		dialogue.ActionConfirmContract,
		dialogue.ActionCancelContract,
		"unknown",
	}
	for _, action := range tests {
		t.Run(action, func(t *testing.T) {
			f := newFixture()
			f.text(t, "u1", "/start")

			reply := f.action(t, "u1", action)
			assert.Equal(t, session.StateWaitingPassport, reply.State)
			assert.Equal(t, []string{f.l.T("dialogue.unknown_action")}, reply.Messages)
			assert.Empty(t, reply.Buttons)
		})
	}
}

func TestEngine_CancelContract(t *testing.T) {
	f := newFixture()
	f.reachConfirmation(t, "u1")

	reply := f.action(t, "u1", dialogue.ActionCancelContract)
	assert.Equal(t, session.StateWaitingPassport, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.contract_cancelled")}, reply.Messages)

	// a new draft takes the next number
	reply = f.reachConfirmation(t, "u1")
	assert.Contains(t, reply.Messages[0], "Номер договора: 00002-ИИИ")
}

func TestEngine_IssueFailureKeepsDraft(t *testing.T) {
	f := newFixture()
	f.reachConfirmation(t, "u1")
	f.contracts.issueErr = assert.AnError

	reply := f.action(t, "u1", dialogue.ActionConfirmContract)
	assert.Equal(t, session.StateConfirmation, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.contract_failed")}, reply.Messages)
	assert.Len(t, reply.Buttons, 2)

	f.contracts.issueErr = nil
	reply = f.action(t, "u1", dialogue.ActionConfirmContract)
	assert.Equal(t, session.StateIdle, reply.State)
	assert.Len(t, reply.Documents, 2)
}

func TestEngine_Photo(t *testing.T) {
	rec := client().WithPhoto("/photos/u1/1.jpg")
	tests := []struct {
		name      string
		result    *docdomain.Result
		err       error
		wantState session.State
		wantMsgs  []string
	}{
		{
			name:      "complete",
			result:    &docdomain.Result{Record: &rec},
			wantState: session.StatePassportConfirmation,
		},
		{
			name: "partial",
			result: &docdomain.Result{Diagnostics: passport.Diagnostics{
				RecognizedFields: []string{"ФИО", "кем выдан", "дата выдачи"},
				MissingFields:    []string{"серия", "номер"},
			}},
			wantState: session.StateWaitingManual,
			wantMsgs: []string{
				"Распознано: ФИО, кем выдан, дата выдачи",
				"Не распознано: серия, номер",
				manual.Template,
			},
		},
		{
			name:      "not recognized",
			err:       errors.Recognition("no text found"),
			wantState: session.StateWaitingManual,
			wantMsgs:  []string{i18n.NewLocalizer(i18n.LocaleRussian).T("dialogue.ocr_failed"), manual.Template},
		},
		{
			name:      "unexpected failure",
			err:       assert.AnError,
			wantState: session.StateWaitingManual,
			wantMsgs:  []string{i18n.NewLocalizer(i18n.LocaleRussian).T("dialogue.ocr_unexpected"), manual.Template},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.passports.result, f.passports.err = tt.result, tt.err
			f.text(t, "u1", "/start")

			reply := f.photo(t, "u1")
			assert.Equal(t, tt.wantState, reply.State)
			require.NotEmpty(t, reply.Messages)
			assert.Equal(t, f.l.T("dialogue.photo_received"), reply.Messages[0])

			all := strings.Join(reply.Messages, "\n")
			for _, msg := range tt.wantMsgs {
				assert.Contains(t, all, msg)
			}
		})
	}
}

func TestEngine_PhotoKeepsPhotoPath(t *testing.T) {
	f := newFixture()
	rec := client().WithPhoto("/photos/u1/1.jpg")
	f.passports.result = &docdomain.Result{Record: &rec}

	f.photo(t, "u1")
	s, err := f.store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "/photos/u1/1.jpg", s.PhotoPath)
	require.NotNil(t, s.Passport)
	assert.Equal(t, rec.FullName, s.Passport.FullName)
}

func TestEngine_PhotoRejected(t *testing.T) {
	f := newFixture()
	f.text(t, "u1", "/manual")
	f.text(t, "u1", manual.Format(client()))

	reply := f.photo(t, "u1")
	assert.Equal(t, session.StatePassportConfirmation, reply.State)
	assert.Equal(t, []string{f.l.T("dialogue.unknown_action")}, reply.Messages)

	g := newFixture()
	g.passports.err = errors.BadRequest("empty image")
	_, err := g.engine.HandlePhoto(g.ctx, "u2", nil)
	assert.True(t, errors.IsBadRequest(err))
}

func TestEngine_GetContract(t *testing.T) {
	f := newFixture()

	reply := f.text(t, "u1", "/get_contract")
	assert.Equal(t, []string{f.l.T("dialogue.no_contracts")}, reply.Messages)

	f.reachConfirmation(t, "u1")
	f.action(t, "u1", dialogue.ActionConfirmContract)

	reply = f.text(t, "u1", "/get_contract")
	assert.Equal(t, []string{f.l.T("dialogue.sending_last")}, reply.Messages)
	require.Len(t, reply.Documents, 2)
	assert.Equal(t, "pdf", reply.Documents[1].Format)

	f.contracts.lastErr = errors.Wrap(contractsvc.ErrFilesMissing, "NOT_FOUND", "contract files not found", 404)
	reply = f.text(t, "u1", "/get_contract")
	assert.Equal(t, []string{f.l.T("dialogue.files_missing")}, reply.Messages)

	f.contracts.lastErr = assert.AnError
	_, err := f.engine.HandleText(f.ctx, "u1", "/get_contract")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEngine_CommandsResetAnyState(t *testing.T) {
	f := newFixture()
	f.reachConfirmation(t, "u1")

	reply := f.text(t, "u1", "/START")
	assert.Equal(t, session.StateWaitingPassport, reply.State)

	s, err := f.store.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, s.Contract)
	assert.Zero(t, s.TotalAmount)
}

func TestEngine_ConcurrentUsers(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	for _, u := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			ctx := f.ctx
			steps := []func() (*dialogue.Reply, error){
				func() (*dialogue.Reply, error) { return f.engine.HandleText(ctx, userID, "/manual") },
				func() (*dialogue.Reply, error) { return f.engine.HandleText(ctx, userID, manual.Format(client())) },
				func() (*dialogue.Reply, error) {
					return f.engine.HandleAction(ctx, userID, dialogue.ActionConfirmPassport)
				},
				func() (*dialogue.Reply, error) { return f.engine.HandleText(ctx, userID, "132000") },
				func() (*dialogue.Reply, error) { return f.engine.HandleText(ctx, userID, "25.03.2024") },
			}
			for _, step := range steps {
				_, err := step()
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, u := range users {
		s, err := f.store.Load(context.Background(), u)
		require.NoError(t, err)
		require.NotNil(t, s.Contract)
		assert.False(t, seen[s.Contract.Number], "duplicate number %s", s.Contract.Number)
		seen[s.Contract.Number] = true
	}
}

func TestEngine_SlowPhotoBlocksOnlyItsUser(t *testing.T) {
	f := newFixture()
	rec := client()
	f.passports.result = &docdomain.Result{Source: docdomain.SourcePhoto, Processor: "ocr", Record: &rec}
	f.passports.started = make(chan string, 1)
	f.passports.release = make(chan struct{})

	photoDone := make(chan *dialogue.Reply, 1)
	go func() {
		reply, err := f.engine.HandlePhoto(f.ctx, "slow", []byte("image"))
		assert.NoError(t, err)
		photoDone <- reply
	}()
	require.Equal(t, "slow", <-f.passports.started)

	users := make([]string, 0, 128)
	for i := 0; i < 128; i++ {
		users = append(users, fmt.Sprintf("user-%d", i))
	}

	others := make(chan struct{})
	go func() {
		defer close(others)
		for _, u := range users {
			_, err := f.engine.HandleText(f.ctx, u, dialogue.CommandManual)
			assert.NoError(t, err)
		}
	}()

	select {
	case <-others:
	case <-time.After(5 * time.Second):
		t.Fatal("other users waited for a photo being recognized")
	}

	sameUser := make(chan struct{})
	go func() {
		defer close(sameUser)
		_, err := f.engine.HandleText(f.ctx, "slow", dialogue.CommandManual)
		assert.NoError(t, err)
	}()

	select {
	case <-sameUser:
		t.Fatal("the same user's input ran while its photo was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.passports.release)
	reply := <-photoDone
	assert.Equal(t, session.StatePassportConfirmation, reply.State)

	<-sameUser
	s, err := f.store.Load(context.Background(), "slow")
	require.NoError(t, err)
	assert.Equal(t, session.StateWaitingManual, s.State)
}
