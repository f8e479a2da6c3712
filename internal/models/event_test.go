package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		in      string
		want    EventType
		wantErr bool
	}{
		{"potty", EventSuccess, false},
		{"dirty_pants", EventAccident, false},
		{"success", EventSuccess, false},
		{"accident", EventAccident, false},
		{"oops", 0, true},
		{"", 0, true},
		{"Potty", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseEventType(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEventType)
				assert.False(t, got.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEventType_ZeroValueIsInvalid(t *testing.T) {
	var et EventType
	assert.False(t, et.Valid())
	_, err := et.MarshalText()
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestEventType_AliasesSerializeCanonically(t *testing.T) {
	var et EventType
	require.NoError(t, json.Unmarshal([]byte(`"success"`), &et))

	b, err := json.Marshal(et)
	require.NoError(t, err)
	assert.JSONEq(t, `"potty"`, string(b))
}

func TestEventTypes_AscendingWireOrder(t *testing.T) {
	types := EventTypes()
	require.Len(t, types, 2)
	for i := 1; i < len(types); i++ {
		assert.Less(t, types[i-1].String(), types[i].String())
	}
}

func TestSummary_JSONShape(t *testing.T) {
	s := Summary{
		DailyEvents: []DailyCount{{EventType: EventSuccess, Date: "2026-10-18", Count: 2}},
		Totals:      map[EventType]int{EventSuccess: 2},
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dailyEvents": [{"event_type": "potty", "date": "2026-10-18", "count": 2}],
		"totals": {"potty": 2}
	}`, string(b))
}

func TestEvent_JSONHidesOwner(t *testing.T) {
	ev := Event{ID: 7, UserID: 3, Type: EventAccident, CreatedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 7, "event_type": "dirty_pants", "created_at": "2026-10-18T09:00:00Z"}`, string(b))
}

func TestUser_JSONNeverCarriesHash(t *testing.T) {
	hash := "$2a$10$secret"
	u := User{ID: 1, Username: "alice", PasswordHash: &hash, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
	assert.False(t, u.IsLegacy())
	assert.True(t, (&User{}).IsLegacy())
}
