package demiurge_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	demiurge "github.com/ALaustrup/demiurge"
	mock_httprpc "github.com/ALaustrup/demiurge/httprpc/mock"
	"github.com/ALaustrup/demiurge/jsonrpc"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type eventCollector struct {
	mu     sync.Mutex
	events []demiurge.Event
	signal chan struct{}
}

func newEventCollector() *eventCollector {
	return &eventCollector{signal: make(chan struct{}, 64)}
}

func (c *eventCollector) collect(e demiurge.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *eventCollector) wait(t *testing.T, n int) []demiurge.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-c.signal:
		case <-deadline:
			t.Fatalf("timed out waiting for %d events", n)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]demiurge.Event, len(c.events))
	copy(out, c.events)
	return out
}

type DispatcherTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	caller     *mock_httprpc.MockCaller
	dispatcher *demiurge.Dispatcher
	collector  *eventCollector
	ctx        context.Context
}

func (suite *DispatcherTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.caller = mock_httprpc.NewMockCaller(suite.ctrl)
	suite.dispatcher = demiurge.NewDispatcher(demiurge.NewClientWithCaller(suite.caller))
	suite.collector = newEventCollector()
	suite.dispatcher.Subscribe(suite.collector.collect)
	suite.ctx = context.Background()
}

func (suite *DispatcherTestSuite) TestFetchChainInfo() {
	suite.caller.EXPECT().
		Call(gomock.Any(), demiurge.MethodGetChainInfo, gomock.Any()).
		Return(json.RawMessage(`{"height":42}`), nil)

	suite.dispatcher.FetchChainInfo(suite.ctx)

	events := suite.collector.wait(suite.T(), 1)
	suite.Equal(demiurge.ChainInfoEvent{Height: 42}, events[0])
}

func (suite *DispatcherTestSuite) TestFetchChainInfoError() {
	suite.caller.EXPECT().
		Call(gomock.Any(), demiurge.MethodGetChainInfo, gomock.Any()).
		Return(nil, jsonrpc.ErrInvalidResponse)

	suite.dispatcher.FetchChainInfo(suite.ctx)

	events := suite.collector.wait(suite.T(), 1)
	errEvent, ok := events[0].(demiurge.ErrorEvent)
	suite.Require().True(ok)
	suite.Equal(demiurge.OpChainInfo, errEvent.Op)
	suite.EqualError(errEvent.Err, "Invalid JSON-RPC response")
}

func (suite *DispatcherTestSuite) TestConcurrentBalancesKeepTheirAddress() {
	// Completions may arrive in any order; each event must still carry
	// the address of its own fetch.
	release := make(chan struct{})
	suite.caller.EXPECT().
		Call(gomock.Any(), demiurge.MethodGetBalance, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, params interface{}) (json.RawMessage, error) {
			raw, err := json.Marshal(params)
			suite.NoError(err)

			var p struct {
				Address string `json:"address"`
			}
			suite.NoError(json.Unmarshal(raw, &p))

			if p.Address == "0xslow" {
				<-release
				return json.RawMessage(`{"balance":1}`), nil
			}
			defer close(release)
			return json.RawMessage(`{"balance":2}`), nil
		}).
		Times(2)

	suite.dispatcher.FetchBalance(suite.ctx, "0xslow")
	// Give the slow fetch a head start so the fast one finishes first.
	time.Sleep(50 * time.Millisecond)
	suite.dispatcher.FetchBalance(suite.ctx, "0xfast")

	events := suite.collector.wait(suite.T(), 2)
	got := map[string]uint64{}
	for _, e := range events {
		be, ok := e.(demiurge.BalanceEvent)
		suite.Require().True(ok)
		got[be.Address] = be.Balance
	}
	suite.Equal(map[string]uint64{"0xslow": 1, "0xfast": 2}, got)
}

func (suite *DispatcherTestSuite) TestFetchIsArchon() {
	suite.caller.EXPECT().
		Call(gomock.Any(), demiurge.MethodIsArchon, gomock.Any()).
		Return(json.RawMessage(`{"is_archon":true}`), nil)

	suite.dispatcher.FetchIsArchon(suite.ctx, "0xabc")

	events := suite.collector.wait(suite.T(), 1)
	suite.Equal(demiurge.ArchonStatusEvent{Address: "0xabc", IsArchon: true}, events[0])
}

func (suite *DispatcherTestSuite) TestSetEndpoint() {
	suite.caller.EXPECT().Endpoint().Return("http://old/rpc")
	suite.caller.EXPECT().SetEndpoint("http://new/rpc")

	suite.dispatcher.SetEndpoint("http://new/rpc")

	events := suite.collector.wait(suite.T(), 1)
	suite.Equal(demiurge.EndpointChangedEvent{Endpoint: "http://new/rpc"}, events[0])
}

func (suite *DispatcherTestSuite) TestSetEndpointUnchanged() {
	suite.caller.EXPECT().Endpoint().Return("http://old/rpc")

	suite.dispatcher.SetEndpoint("http://old/rpc")

	suite.mustStaySilent()
}

func (suite *DispatcherTestSuite) TestUnsubscribe() {
	second := newEventCollector()
	id := suite.dispatcher.Subscribe(second.collect)
	suite.dispatcher.Unsubscribe(id)

	suite.caller.EXPECT().
		Call(gomock.Any(), demiurge.MethodGetChainInfo, gomock.Any()).
		Return(json.RawMessage(`{"height":1}`), nil)

	suite.dispatcher.FetchChainInfo(suite.ctx)
	suite.collector.wait(suite.T(), 1)

	second.mu.Lock()
	defer second.mu.Unlock()
	suite.Empty(second.events)
}

func (suite *DispatcherTestSuite) mustStaySilent() {
	select {
	case <-suite.collector.signal:
		suite.Fail("unexpected event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcher(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}
