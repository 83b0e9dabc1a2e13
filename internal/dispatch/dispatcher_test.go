package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suokelife/suoke-dispatch-go/internal/intent"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"github.com/suokelife/suoke-dispatch-go/internal/session"
	"go.uber.org/zap"
)

// fakeInquiryAPI 问诊服务假实现
type fakeInquiryAPI struct {
	mu            sync.Mutex
	startCalls    int
	interactCalls []string // 每次交互使用的 sessionId
	startErr      error
	interactErr   error
	assessment    string
}

func (f *fakeInquiryAPI) StartSession(_ context.Context, userID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.startCalls++
	return fmt.Sprintf("inq-sess-%d", f.startCalls), nil
}

func (f *fakeInquiryAPI) Interact(_ context.Context, sessionID, _ string) (*model.ModalityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.interactErr != nil {
		return nil, f.interactErr
	}
	f.interactCalls = append(f.interactCalls, sessionID)
	return &model.ModalityResult{
		Modality:          model.ModalityInquiry,
		DetectedSymptoms:  []string{"胸闷"},
		OverallAssessment: f.assessment,
		Confidence:        0.8,
	}, nil
}

// fakeLookAPI 望诊服务假实现
type fakeLookAPI struct {
	mu         sync.Mutex
	calls      []model.ImagePayload
	err        error
	assessment string
}

func (f *fakeLookAPI) AnalyzeImage(_ context.Context, img model.ImagePayload) (*model.ModalityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, img)
	return &model.ModalityResult{
		Modality:          model.ModalityLook,
		OverallAssessment: f.assessment,
		Confidence:        0.7,
	}, nil
}

// fakeListenAPI 闻诊服务假实现
type fakeListenAPI struct {
	mu    sync.Mutex
	calls []model.AudioPayload
	err   error
}

func (f *fakeListenAPI) AnalyzeAudio(_ context.Context, audio model.AudioPayload) (*model.ModalityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, audio)
	return &model.ModalityResult{
		Modality:          model.ModalityListen,
		OverallAssessment: "声音偏弱",
		Confidence:        0.6,
	}, nil
}

// fakePalpationAPI 切诊服务假实现
type fakePalpationAPI struct {
	mu    sync.Mutex
	calls []model.PalpationReading
	err   error
}

func (f *fakePalpationAPI) Analyze(_ context.Context, reading model.PalpationReading) (*model.ModalityResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, reading)
	return &model.ModalityResult{
		Modality:          model.ModalityPalpation,
		OverallAssessment: "脉象平稳",
		Confidence:        0.75,
	}, nil
}

type testEnv struct {
	dispatcher *Dispatcher
	store      *session.MemoryStore
	inquiry    *fakeInquiryAPI
	look       *fakeLookAPI
	listen     *fakeListenAPI
	palpation  *fakePalpationAPI
}

func newTestEnv() *testEnv {
	vocab := &intent.Vocabulary{
		Symptoms:          []string{"胸闷", "乏力", "咳嗽"},
		Emergency:         []string{"呼吸困难"},
		LookTriggers:      []string{"舌头", "看看"},
		ListenTriggers:    []string{"听听"},
		PalpationTriggers: []string{"把脉"},
	}

	logger := zap.NewNop()
	store := session.NewMemoryStore(logger)
	inquiry := &fakeInquiryAPI{assessment: "初步判断为气虚"}
	look := &fakeLookAPI{assessment: "舌苔偏白"}
	listen := &fakeListenAPI{}
	palpation := &fakePalpationAPI{}

	dispatcher := NewDispatcher(
		intent.NewClassifier(vocab),
		[]Invoker{
			NewInquiryInvoker(inquiry, store, logger),
			NewLookInvoker(look, logger),
			NewListenInvoker(listen, logger),
			NewPalpationInvoker(palpation, logger),
		},
		store,
		5*time.Second,
		logger,
	)

	return &testEnv{
		dispatcher: dispatcher,
		store:      store,
		inquiry:    inquiry,
		look:       look,
		listen:     listen,
		palpation:  palpation,
	}
}

func TestProcessMessage_SymptomsOnly(t *testing.T) {
	env := newTestEnv()

	reply := env.dispatcher.ProcessMessage(context.Background(), "我最近胸闷、乏力", model.MediaContext{UserID: 1})

	require.NotNil(t, reply)
	assert.False(t, reply.Degraded)
	assert.Contains(t, reply.Text, "胸闷、乏力")
	assert.Contains(t, reply.Text, "初步判断为气虚")

	// 问诊结果只有一项，不触发聚合
	require.Len(t, reply.Results, 1)
	assert.Equal(t, model.ModalityInquiry, reply.Results[0].Modality)
	assert.Nil(t, reply.Integrated)

	// 问诊动作：必选、自动开始、优先级 1
	require.NotEmpty(t, reply.Actions)
	inquiryAction := reply.Actions[0]
	assert.Equal(t, model.ModalityInquiry, inquiryAction.Modality)
	assert.Equal(t, 1, inquiryAction.Priority)
	assert.True(t, inquiryAction.Required)
	assert.True(t, inquiryAction.AutoStart)

	assert.Equal(t, 1, env.inquiry.startCalls)
	assert.Empty(t, env.look.calls)
	assert.Empty(t, env.listen.calls)
	assert.Empty(t, env.palpation.calls)
}

func TestProcessMessage_LookWithTongueImage(t *testing.T) {
	env := newTestEnv()

	media := model.MediaContext{
		UserID: 1,
		Images: []model.ImagePayload{
			{Tag: "face", Data: "face-img"},
			{Tag: "tongue", Data: "tongue-img"},
		},
	}
	reply := env.dispatcher.ProcessMessage(context.Background(), "看看我的舌头", media)

	// 优先选择 tongue 图片
	require.Len(t, env.look.calls, 1)
	assert.Equal(t, "tongue", env.look.calls[0].Tag)

	assert.Contains(t, reply.Text, "舌苔偏白")
	require.Len(t, reply.Results, 1)
	assert.Equal(t, model.ModalityLook, reply.Results[0].Modality)

	// 无症状词，不调用问诊
	assert.Equal(t, 0, env.inquiry.startCalls)
}

func TestProcessMessage_AggregationTrigger(t *testing.T) {
	env := newTestEnv()

	media := model.MediaContext{
		UserID: 1,
		Images: []model.ImagePayload{{Tag: "tongue", Data: "tongue-img"}},
	}
	reply := env.dispatcher.ProcessMessage(context.Background(), "我胸闷，看看舌头", media)

	// 问诊 + 望诊两项结果，触发聚合
	require.Len(t, reply.Results, 2)
	require.NotNil(t, reply.Integrated)
	assert.Len(t, reply.Integrated.Evidence, 2)
	assert.Contains(t, reply.Text, reply.Integrated.OverallAssessment)
	for _, rec := range reply.Integrated.Recommendations {
		assert.Contains(t, reply.Text, rec.Content)
	}

	// 结果顺序固定：问诊在前，望诊在后
	assert.Equal(t, model.ModalityInquiry, reply.Results[0].Modality)
	assert.Equal(t, model.ModalityLook, reply.Results[1].Modality)
}

func TestProcessMessage_SingleResultNeverAggregates(t *testing.T) {
	env := newTestEnv()

	reply := env.dispatcher.ProcessMessage(context.Background(), "我最近咳嗽", model.MediaContext{UserID: 1})

	require.Len(t, reply.Results, 1)
	assert.Nil(t, reply.Integrated)
}

func TestProcessMessage_AllFailedDegrades(t *testing.T) {
	env := newTestEnv()
	env.look.err = fmt.Errorf("望诊服务超时")

	media := model.MediaContext{
		UserID: 1,
		Images: []model.ImagePayload{{Tag: "tongue", Data: "tongue-img"}},
	}
	reply := env.dispatcher.ProcessMessage(context.Background(), "看看我的舌头", media)

	require.NotNil(t, reply)
	assert.True(t, reply.Degraded)
	assert.Equal(t, degradedText, reply.Text)
	assert.Equal(t, degradedSuggestions, reply.Suggestions)
	assert.Empty(t, reply.Results)
}

func TestProcessMessage_PartialFailureKeepsSurvivors(t *testing.T) {
	env := newTestEnv()
	env.look.err = fmt.Errorf("望诊服务超时")

	media := model.MediaContext{
		UserID: 1,
		Images: []model.ImagePayload{{Tag: "tongue", Data: "tongue-img"}},
	}
	reply := env.dispatcher.ProcessMessage(context.Background(), "我胸闷，看看舌头", media)

	// 望诊失败不拖垮问诊结果
	assert.False(t, reply.Degraded)
	require.Len(t, reply.Results, 1)
	assert.Equal(t, model.ModalityInquiry, reply.Results[0].Modality)
	assert.Nil(t, reply.Integrated)
}

func TestProcessMessage_NoApplicableModality(t *testing.T) {
	env := newTestEnv()

	reply := env.dispatcher.ProcessMessage(context.Background(), "你好", model.MediaContext{UserID: 1})

	require.NotNil(t, reply)
	assert.False(t, reply.Degraded)
	assert.Contains(t, reply.Text, "帮您了解您的健康状况")
	assert.Equal(t, quickSuggestions, reply.Suggestions)
	assert.Empty(t, reply.Results)
	assert.Empty(t, reply.Actions)

	// 不发起任何远程调用
	assert.Equal(t, 0, env.inquiry.startCalls)
	assert.Empty(t, env.look.calls)
}

func TestProcessMessage_InquirySessionReused(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.dispatcher.ProcessMessage(ctx, "我最近胸闷", model.MediaContext{UserID: 1})
	env.dispatcher.ProcessMessage(ctx, "还有点乏力", model.MediaContext{UserID: 1})

	// 会话只创建一次，两轮交互复用同一 sessionId
	assert.Equal(t, 1, env.inquiry.startCalls)
	require.Len(t, env.inquiry.interactCalls, 2)
	assert.Equal(t, env.inquiry.interactCalls[0], env.inquiry.interactCalls[1])

	sessionID, err := env.store.Get(ctx, model.ModalityInquiry, 1)
	require.NoError(t, err)
	assert.Equal(t, env.inquiry.interactCalls[0], sessionID)
}

func TestProcessMessage_FlaggedWithoutMediaPromptsAction(t *testing.T) {
	env := newTestEnv()

	// 触发望诊意图但没有附带图片：不调用远程服务，提示用户上传
	reply := env.dispatcher.ProcessMessage(context.Background(), "帮我看看气色怎么样", model.MediaContext{UserID: 1})

	assert.Empty(t, env.look.calls)

	var lookAction *model.DiagnosisAction
	for i := range reply.Actions {
		if reply.Actions[i].Modality == model.ModalityLook {
			lookAction = &reply.Actions[i]
		}
	}
	require.NotNil(t, lookAction)
	assert.Equal(t, 2, lookAction.Priority)
	assert.False(t, lookAction.Required)
}

func TestProcessMessage_AllFourModalities(t *testing.T) {
	env := newTestEnv()

	media := model.MediaContext{
		UserID:    1,
		Images:    []model.ImagePayload{{Tag: "tongue", Data: "img"}},
		Audios:    []model.AudioPayload{{Tag: "voice", Data: "audio"}, {Tag: "cough", Data: "cough-audio"}},
		Palpation: []model.PalpationReading{{Tag: "pulse", Data: "pulse-data"}},
	}
	reply := env.dispatcher.ProcessMessage(context.Background(), "我胸闷乏力", media)

	require.Len(t, reply.Results, 4)
	for i, m := range model.AllModalities {
		assert.Equal(t, m, reply.Results[i].Modality)
	}
	require.NotNil(t, reply.Integrated)

	// 闻诊优先选择 cough 音频
	require.Len(t, env.listen.calls, 1)
	assert.Equal(t, "cough", env.listen.calls[0].Tag)
}

func TestClearAndActiveSessions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.dispatcher.ProcessMessage(ctx, "我最近胸闷", model.MediaContext{UserID: 7})

	active, err := env.dispatcher.ActiveSessions(ctx, 7)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Contains(t, active, model.ModalityInquiry)

	require.NoError(t, env.dispatcher.ClearSessions(ctx, 7))

	active, err = env.dispatcher.ActiveSessions(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestProcessMessage_ConcurrentSameUser(t *testing.T) {
	env := newTestEnv()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.dispatcher.ProcessMessage(context.Background(), "我最近胸闷", model.MediaContext{UserID: 1})
		}()
	}
	wg.Wait()

	// 同一用户的调度串行执行，问诊会话只创建一次
	assert.Equal(t, 1, env.inquiry.startCalls)
	assert.Len(t, env.inquiry.interactCalls, 8)
}

func TestProcessMessage_UserLocksEvicted(t *testing.T) {
	env := newTestEnv()

	var wg sync.WaitGroup
	for userID := int64(1); userID <= 5; userID++ {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(uid int64) {
				defer wg.Done()
				env.dispatcher.ProcessMessage(context.Background(), "我最近胸闷", model.MediaContext{UserID: uid})
			}(userID)
		}
	}
	wg.Wait()

	// 调度结束后锁表应回收为空，不随用户数无限增长
	env.dispatcher.lockMu.Lock()
	remaining := len(env.dispatcher.userLocks)
	env.dispatcher.lockMu.Unlock()
	assert.Equal(t, 0, remaining)
}
