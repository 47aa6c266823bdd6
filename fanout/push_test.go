// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package fanout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/reelrank/testutil"
)

func TestPushNotifier_SendsToEveryDevice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bob, _ := testutil.CreateTestUser(t, db, "bob")
	testutil.AddTestDevice(t, db, bob, "ExponentPushToken[one]")
	testutil.AddTestDevice(t, db, bob, "ExponentPushToken[two]")

	var got []pushMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPushNotifier(db, srv.URL, 100)
	require.NoError(t, p.Notify(context.Background(), bob, "alice ranked Dune 1st"))

	require.Len(t, got, 2)
	tokens := []string{got[0].To, got[1].To}
	assert.ElementsMatch(t, []string{"ExponentPushToken[one]", "ExponentPushToken[two]"}, tokens)
	assert.Equal(t, "alice ranked Dune 1st", got[0].Body)
	assert.Equal(t, "reelrank", got[0].Title)
}

func TestPushNotifier_NoDevicesSkipsGateway(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bob, _ := testutil.CreateTestUser(t, db, "bob")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := NewPushNotifier(db, srv.URL, 100)
	require.NoError(t, p.Notify(context.Background(), bob, "hello"))
	assert.Equal(t, int32(0), hits.Load())
}

func TestPushNotifier_GatewayRejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bob, _ := testutil.CreateTestUser(t, db, "bob")
	testutil.AddTestDevice(t, db, bob, "ExponentPushToken[one]")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewPushNotifier(db, srv.URL, 100).Notify(context.Background(), bob, "hello")
	assert.ErrorIs(t, err, ErrPushRejected)
}

func TestPushNotifier_CanceledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	bob, _ := testutil.CreateTestUser(t, db, "bob")
	testutil.AddTestDevice(t, db, bob, "ExponentPushToken[one]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPushNotifier(db, "http://127.0.0.1:0", 1).Notify(ctx, bob, "hello")
	assert.Error(t, err)
}
