package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Zahid-Ham/ConsultAI-Latest/internal/event"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/model"
	"github.com/Zahid-Ham/ConsultAI-Latest/internal/repo"
	"github.com/Zahid-Ham/ConsultAI-Latest/pkg/blobstore"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeConvRepo struct {
	mu    sync.Mutex
	byKey map[string]*model.Conversation

	// preInsert runs inside Insert before the uniqueness check; tests use it
	// to simulate a concurrent request winning the first-contact race.
	preInsert func()
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{byKey: map[string]*model.Conversation{}}
}

func (f *fakeConvRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeConvRepo) FindByParticipants(ctx context.Context, a, b primitive.ObjectID) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.byKey[model.ParticipantKey(a, b)]; ok {
		cp := *conv
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeConvRepo) Insert(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	if f.preInsert != nil {
		f.preInsert()
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := model.ParticipantKey(conv.Participants[0], conv.Participants[1])
	if _, exists := f.byKey[key]; exists {
		return nil, repo.ErrDuplicateConversation
	}
	conv.ID = primitive.NewObjectID()
	conv.ParticipantKey = key
	f.byKey[key] = conv
	cp := *conv
	return &cp, nil
}

func (f *fakeConvRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.byKey {
		if conv.ID.Hex() == id {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeConvRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Conversation
	for _, conv := range f.byKey {
		for _, p := range conv.Participants {
			if p == userID {
				out = append(out, *conv)
				break
			}
		}
	}
	return out, nil
}

type fakeMsgRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Message
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{byID: map[string]*model.Message{}}
}

func (f *fakeMsgRepo) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now().UTC()
	f.byID[msg.ID.Hex()] = msg
	cp := *msg
	return &cp, nil
}

func (f *fakeMsgRepo) FindByID(ctx context.Context, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.byID[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMsgRepo) ListByConversation(ctx context.Context, conversationID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, msg := range f.byID {
		if msg.ConversationID.Hex() == conversationID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeMsgRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return false, nil
	}
	delete(f.byID, id)
	return true, nil
}

func (f *fakeMsgRepo) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok
}

type fakeUserRepo struct {
	byID map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: map[string]*model.User{}}
	for _, u := range users {
		f.byID[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeUserRepo) Insert(ctx context.Context, u *model.User) (*model.User, error) {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, repo.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	f.byID[u.ID.Hex()] = u
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	var out []model.User
	for _, id := range ids {
		if u, ok := f.byID[id.Hex()]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateByID(ctx context.Context, id string, update bson.M) error {
	u, ok := f.byID[id]
	if !ok {
		return nil
	}
	if v, ok := update["is_verified"].(bool); ok {
		u.IsVerified = v
	}
	if v, ok := update["name"].(string); ok {
		u.Name = v
	}
	return nil
}

func (f *fakeUserRepo) FindDoctors(ctx context.Context, verified *bool) ([]model.User, error) {
	var out []model.User
	for _, u := range f.byID {
		if u.Role != model.RoleDoctor {
			continue
		}
		if verified != nil && u.IsVerified != *verified {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

type emit struct {
	userID  string
	event   string
	payload any
}

// recordingNotifier captures emits; onEmit optionally observes each one at
// emit time.
type recordingNotifier struct {
	mu     sync.Mutex
	emits  []emit
	onEmit func(emit)
}

func (r *recordingNotifier) EmitToUser(userID string, event string, payload any) {
	e := emit{userID: userID, event: event, payload: payload}
	r.mu.Lock()
	r.emits = append(r.emits, e)
	r.mu.Unlock()
	if r.onEmit != nil {
		r.onEmit(e)
	}
}

func (r *recordingNotifier) named(name string) []emit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []emit
	for _, e := range r.emits {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

type fakeBlobs struct {
	uploads int
	deleted []string
	files   map[string]blobstore.FileInfo
}

func (f *fakeBlobs) Upload(ctx context.Context, data []byte, filename string) (*blobstore.UploadResult, error) {
	f.uploads++
	return &blobstore.UploadResult{
		URL:      "https://files.example/" + filename,
		BlobID:   "blob-" + filename,
		Type:     "raw",
		Filename: filename,
	}, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, blobID string) error {
	f.deleted = append(f.deleted, blobID)
	return nil
}

func (f *fakeBlobs) Resolve(ctx context.Context, blobID string) (*blobstore.FileInfo, error) {
	if info, ok := f.files[blobID]; ok {
		return &info, nil
	}
	return nil, ErrReportNotFound
}

func (f *fakeBlobs) List(ctx context.Context) ([]blobstore.FileInfo, error) {
	var out []blobstore.FileInfo
	for _, info := range f.files {
		out = append(out, info)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Fixture
// -----------------------------------------------------------------------------

type chatFixture struct {
	svc      ChatService
	convs    *fakeConvRepo
	msgs     *fakeMsgRepo
	notifier *recordingNotifier
	blobs    *fakeBlobs

	patient *model.User
	doctor  *model.User
	conv    *model.Conversation
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	patient := &model.User{ID: primitive.NewObjectID(), Name: "Asha", Role: model.RolePatient}
	doctor := &model.User{ID: primitive.NewObjectID(), Name: "Dr. Rao", Role: model.RoleDoctor, IsVerified: true}

	convs := newFakeConvRepo()
	conv, err := convs.Insert(context.Background(), &model.Conversation{
		Participants: []primitive.ObjectID{patient.ID, doctor.ID},
	})
	require.NoError(t, err)

	msgs := newFakeMsgRepo()
	notifier := &recordingNotifier{}
	blobs := &fakeBlobs{files: map[string]blobstore.FileInfo{}}

	svc := NewChatService(convs, msgs, newFakeUserRepo(patient, doctor), blobs, notifier, zap.NewNop())
	return &chatFixture{
		svc:      svc,
		convs:    convs,
		msgs:     msgs,
		notifier: notifier,
		blobs:    blobs,
		patient:  patient,
		doctor:   doctor,
		conv:     conv,
	}
}

// -----------------------------------------------------------------------------
// Message dispatch
// -----------------------------------------------------------------------------

func TestSendMessageFansOutToAllParticipants(t *testing.T) {
	fx := newChatFixture(t)

	msg, err := fx.svc.SendMessage(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), "hello doctor")
	require.NoError(t, err)
	require.Equal(t, "hello doctor", msg.Text)
	require.Equal(t, "Asha", msg.SenderName)
	require.False(t, msg.CreatedAt.IsZero())

	emits := fx.notifier.named(event.EventReceiveMessage)
	require.Len(t, emits, 2)

	// The sender gets a copy too, so their other open tabs stay in sync.
	recipients := []string{emits[0].userID, emits[1].userID}
	require.ElementsMatch(t, []string{fx.patient.ID.Hex(), fx.doctor.ID.Hex()}, recipients)
}

func TestSendMessagePersistsBeforeFanout(t *testing.T) {
	fx := newChatFixture(t)

	fx.notifier.onEmit = func(e emit) {
		msg, ok := e.payload.(*model.Message)
		require.True(t, ok)
		require.True(t, fx.msgs.has(msg.ID.Hex()), "emitted before persisting")
	}

	_, err := fx.svc.SendMessage(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), "durable first")
	require.NoError(t, err)
	require.Len(t, fx.notifier.named(event.EventReceiveMessage), 2)
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	fx := newChatFixture(t)

	_, err := fx.svc.SendMessage(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), "")
	require.ErrorIs(t, err, ErrInvalidContent)
	require.Empty(t, fx.notifier.emits)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	fx := newChatFixture(t)

	_, err := fx.svc.SendMessage(context.Background(), primitive.NewObjectID().Hex(), fx.patient.ID.Hex(), "hi")
	require.ErrorIs(t, err, ErrConversationNotFound)
	require.Empty(t, fx.notifier.emits)
}

func TestSendFileMessageUploadsThenDispatches(t *testing.T) {
	fx := newChatFixture(t)

	msg, err := fx.svc.SendFileMessage(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), []byte("pdf bytes"), "scan.pdf")
	require.NoError(t, err)
	require.Equal(t, 1, fx.blobs.uploads)
	require.Equal(t, "https://files.example/scan.pdf", msg.FileURL)
	require.Equal(t, "scan.pdf", msg.FileName)
	require.True(t, msg.HasFile())
	require.Len(t, fx.notifier.named(event.EventReceiveMessage), 2)
}

func TestShareStoredFileResolvesMissingFields(t *testing.T) {
	fx := newChatFixture(t)
	fx.blobs.files["blob-1"] = blobstore.FileInfo{
		BlobID:   "blob-1",
		URL:      "https://files.example/old-report.pdf",
		Filename: "old-report.pdf",
		Type:     "raw",
	}

	msg, err := fx.svc.ShareStoredFile(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), StoredFileRef{BlobID: "blob-1"})
	require.NoError(t, err)
	require.Equal(t, "https://files.example/old-report.pdf", msg.FileURL)
	require.Equal(t, "old-report.pdf", msg.FileName)
	require.Zero(t, fx.blobs.uploads, "re-share must not re-upload")
	require.Len(t, fx.notifier.named(event.EventReceiveMessage), 2)
}

// -----------------------------------------------------------------------------
// Message deletion
// -----------------------------------------------------------------------------

func TestDeleteMessageBySender(t *testing.T) {
	fx := newChatFixture(t)

	msg, err := fx.svc.SendMessage(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), "oops")
	require.NoError(t, err)

	err = fx.svc.DeleteMessage(context.Background(), msg.ID.Hex(), fx.patient.ID.Hex())
	require.NoError(t, err)
	require.False(t, fx.msgs.has(msg.ID.Hex()))

	emits := fx.notifier.named(event.EventMessageDeleted)
	require.Len(t, emits, 2)
	payload, ok := emits[0].payload.(event.MessageDeletedPayload)
	require.True(t, ok)
	require.Equal(t, msg.ID.Hex(), payload.MessageID)
}

func TestDeleteMessageByNonSenderIsForbidden(t *testing.T) {
	fx := newChatFixture(t)

	msg, err := fx.svc.SendMessage(context.Background(), fx.conv.ID.Hex(), fx.patient.ID.Hex(), "mine")
	require.NoError(t, err)

	err = fx.svc.DeleteMessage(context.Background(), msg.ID.Hex(), fx.doctor.ID.Hex())
	require.ErrorIs(t, err, ErrForbidden)
	require.True(t, fx.msgs.has(msg.ID.Hex()), "message must survive a rejected delete")
	require.Empty(t, fx.notifier.named(event.EventMessageDeleted))
}

func TestDeleteMissingMessage(t *testing.T) {
	fx := newChatFixture(t)

	err := fx.svc.DeleteMessage(context.Background(), primitive.NewObjectID().Hex(), fx.patient.ID.Hex())
	require.ErrorIs(t, err, ErrMessageNotFound)
}

// -----------------------------------------------------------------------------
// Conversation find-or-create
// -----------------------------------------------------------------------------

func TestCreateConversationIsIdempotent(t *testing.T) {
	fx := newChatFixture(t)

	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	fx2 := newFakeUserRepo(
		&model.User{ID: a, Name: "A", Role: model.RolePatient},
		&model.User{ID: b, Name: "B", Role: model.RoleDoctor},
	)
	svc := NewChatService(fx.convs, fx.msgs, fx2, fx.blobs, fx.notifier, zap.NewNop())

	first, created, err := svc.CreateOrGetConversation(context.Background(), a.Hex(), b.Hex())
	require.NoError(t, err)
	require.True(t, created)

	// Same pair in either order resolves to the same conversation.
	second, created, err := svc.CreateOrGetConversation(context.Background(), b.Hex(), a.Hex())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
}

func TestCreateConversationRaceLoserAdoptsWinner(t *testing.T) {
	fx := newChatFixture(t)

	a := fx.patient.ID
	b := primitive.NewObjectID()
	users := newFakeUserRepo(
		fx.patient,
		&model.User{ID: b, Name: "Dr. New", Role: model.RoleDoctor},
	)
	svc := NewChatService(fx.convs, fx.msgs, users, fx.blobs, fx.notifier, zap.NewNop())

	// A concurrent request inserts the pair between our lookup and insert.
	var winner *model.Conversation
	fx.convs.preInsert = func() {
		fx.convs.preInsert = nil
		w, err := fx.convs.Insert(context.Background(), &model.Conversation{
			Participants: []primitive.ObjectID{a, b},
		})
		require.NoError(t, err)
		winner = w
	}

	view, created, err := svc.CreateOrGetConversation(context.Background(), a.Hex(), b.Hex())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, winner.ID.Hex(), view.ID)
}

func TestCreateConversationRejectsSelf(t *testing.T) {
	fx := newChatFixture(t)

	_, _, err := fx.svc.CreateOrGetConversation(context.Background(), fx.patient.ID.Hex(), fx.patient.ID.Hex())
	require.ErrorIs(t, err, ErrInvalidContent)
}

func TestListConversationsIncludesParticipantDetails(t *testing.T) {
	fx := newChatFixture(t)

	views, err := fx.svc.ListConversations(context.Background(), fx.patient.ID.Hex())
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Participants, 2)

	names := []string{views[0].Participants[0].Name, views[0].Participants[1].Name}
	require.ElementsMatch(t, []string{"Asha", "Dr. Rao"}, names)
}
