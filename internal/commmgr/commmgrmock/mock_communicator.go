// Package commmgrmock holds a gomock mock of commmgr.Communicator, used by
// internal/commmgr's dispatch-loop tests to exercise the processor table
// without a real communicator backend.
package commmgrmock

import (
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/dougbenjamin/pilot3/internal/commmgr"
)

// MockCommunicator is a mock of the commmgr.Communicator interface.
type MockCommunicator struct {
	ctrl     *gomock.Controller
	recorder *MockCommunicatorMockRecorder
}

// MockCommunicatorMockRecorder is the mock recorder for MockCommunicator.
type MockCommunicatorMockRecorder struct {
	mock *MockCommunicator
}

// NewMockCommunicator creates a new mock instance.
func NewMockCommunicator(ctrl *gomock.Controller) *MockCommunicator {
	mock := &MockCommunicator{ctrl: ctrl}
	mock.recorder = &MockCommunicatorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCommunicator) EXPECT() *MockCommunicatorMockRecorder {
	return m.recorder
}

func (m *MockCommunicator) PreCheckGetJobs() commmgr.PreCheck {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PreCheckGetJobs")
	ret0, _ := ret[0].(commmgr.PreCheck)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) PreCheckGetJobs() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PreCheckGetJobs", reflect.TypeOf((*MockCommunicator)(nil).PreCheckGetJobs))
}

func (m *MockCommunicator) RequestGetJobs(req *commmgr.Request) *commmgr.Response {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RequestGetJobs", req)
	ret0, _ := ret[0].(*commmgr.Response)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) RequestGetJobs(req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RequestGetJobs", reflect.TypeOf((*MockCommunicator)(nil).RequestGetJobs), req)
}

func (m *MockCommunicator) CheckGetJobsStatus() commmgr.PreCheck {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckGetJobsStatus")
	ret0, _ := ret[0].(commmgr.PreCheck)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) CheckGetJobsStatus() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckGetJobsStatus", reflect.TypeOf((*MockCommunicator)(nil).CheckGetJobsStatus))
}

func (m *MockCommunicator) GetJobs(req *commmgr.Request) *commmgr.Response {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetJobs", req)
	ret0, _ := ret[0].(*commmgr.Response)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) GetJobs(req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetJobs", reflect.TypeOf((*MockCommunicator)(nil).GetJobs), req)
}

func (m *MockCommunicator) PreCheckGetEvents() commmgr.PreCheck {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PreCheckGetEvents")
	ret0, _ := ret[0].(commmgr.PreCheck)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) PreCheckGetEvents() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PreCheckGetEvents", reflect.TypeOf((*MockCommunicator)(nil).PreCheckGetEvents))
}

func (m *MockCommunicator) RequestGetEvents(req *commmgr.Request) *commmgr.Response {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RequestGetEvents", req)
	ret0, _ := ret[0].(*commmgr.Response)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) RequestGetEvents(req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RequestGetEvents", reflect.TypeOf((*MockCommunicator)(nil).RequestGetEvents), req)
}

func (m *MockCommunicator) CheckGetEventsStatus() commmgr.PreCheck {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CheckGetEventsStatus")
	ret0, _ := ret[0].(commmgr.PreCheck)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) CheckGetEventsStatus() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CheckGetEventsStatus", reflect.TypeOf((*MockCommunicator)(nil).CheckGetEventsStatus))
}

func (m *MockCommunicator) GetEvents(req *commmgr.Request) *commmgr.Response {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetEvents", req)
	ret0, _ := ret[0].(*commmgr.Response)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) GetEvents(req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetEvents", reflect.TypeOf((*MockCommunicator)(nil).GetEvents), req)
}

func (m *MockCommunicator) PreCheckUpdateJobs() commmgr.PreCheck {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PreCheckUpdateJobs")
	ret0, _ := ret[0].(commmgr.PreCheck)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) PreCheckUpdateJobs() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PreCheckUpdateJobs", reflect.TypeOf((*MockCommunicator)(nil).PreCheckUpdateJobs))
}

func (m *MockCommunicator) UpdateJobs(req *commmgr.Request) *commmgr.Response {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateJobs", req)
	ret0, _ := ret[0].(*commmgr.Response)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) UpdateJobs(req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateJobs", reflect.TypeOf((*MockCommunicator)(nil).UpdateJobs), req)
}

func (m *MockCommunicator) PreCheckUpdateEvents() commmgr.PreCheck {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PreCheckUpdateEvents")
	ret0, _ := ret[0].(commmgr.PreCheck)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) PreCheckUpdateEvents() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PreCheckUpdateEvents", reflect.TypeOf((*MockCommunicator)(nil).PreCheckUpdateEvents))
}

func (m *MockCommunicator) UpdateEvents(req *commmgr.Request) *commmgr.Response {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateEvents", req)
	ret0, _ := ret[0].(*commmgr.Response)
	return ret0
}

func (mr *MockCommunicatorMockRecorder) UpdateEvents(req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateEvents", reflect.TypeOf((*MockCommunicator)(nil).UpdateEvents), req)
}
