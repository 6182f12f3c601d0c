// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test`.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
)

const (
	// Server configuration constants.
	host      = "127.0.0.1:8282"
	authority = "http://127.0.0.1:8282"

	// Polling constants.
	retryCount  = 10
	dialTimeout = 250 * time.Millisecond
)

// httpTestCase defines a test case.
type httpTestCase struct {
	URL                string
	Method             string
	ExpectedStatusCode int
	ExpectedLocation   string

	// POST requests specific fields
	FormData map[string]string
}

// setDefault sets the default values for the test case.
func (c *httpTestCase) setDefault() {
	if c.ExpectedStatusCode == 0 {
		c.ExpectedStatusCode = http.StatusOK
	}
}

// noRedirectClient reports redirects instead of following them.
var noRedirectClient = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// TestMain is used for global setup and teardown.
//
// It starts the server and waits for it to be available before running tests.
func TestMain(m *testing.M) {
	_ = os.Setenv("DAPP32_HOST", "127.0.0.1")
	_ = os.Setenv("DAPP32_PORT", "8282")
	_ = os.Setenv("DAPP32_ROUTE_TABLE", "full")

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- run(ctx)
	}()

	// Wait for the server.
	if !waitForServerReady() {
		log.Fatalf("Server did not start in time")
	}

	code := m.Run()

	cancel()

	if err := <-done; err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	os.Exit(code)
}

// waitForServerReady polls the server until it's available or the retries are exhausted.
func waitForServerReady() bool {
	for range retryCount {
		conn, err := net.DialTimeout("tcp", host, dialTimeout)
		if err == nil {
			_ = conn.Close()

			return true // Server is up.
		}

		time.Sleep(dialTimeout)
	}

	return false
}

// TestBasicAllRoutes tests all routes of the full table.
func TestBasicAllRoutes(t *testing.T) {
	t.Parallel()

	testCases := []httpTestCase{
		// Contract viewer
		{
			URL:    "/v/ethereum/0xdAC17F958D2ee523a2206206994597C13D831ec7",
			Method: http.MethodGet,
		},
		{
			// Addresses are not validated by default
			URL:    "/v/polygon/not-an-address",
			Method: http.MethodGet,
		},
		{
			URL:                "/v/ethereum",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusNotFound,
		},

		// MetaMask test page
		{
			URL:    "/metamask/",
			Method: http.MethodGet,
		},
		{
			URL:                "/metamask",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusMovedPermanently,
			ExpectedLocation:   "/metamask/",
		},

		// Reactive components
		{
			URL:    "/reactpy/iframe/dapp32.components.hello_world/?name=dapp32",
			Method: http.MethodGet,
		},
		{
			URL:    "/reactpy/web_module/dapp32/connect_wallet.js",
			Method: http.MethodGet,
		},
		{
			URL:                "/reactpy/web_module/dapp32/missing.js",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusNotFound,
		},

		// Admin console
		{
			URL:                "/admin/",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusFound,
			ExpectedLocation:   "/admin/login/?next=%2Fadmin%2F",
		},
		{
			URL:    "/admin/login/",
			Method: http.MethodGet,
		},
		{
			URL:                "/admin/login/",
			Method:             http.MethodPost,
			ExpectedStatusCode: http.StatusForbidden,
			FormData: map[string]string{
				"username": "admin",
				"password": "hunter2",
			},
		},

		// Unmatched
		{
			URL:                "/",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusNotFound,
		},
		{
			URL:                "/does/not/exist",
			Method:             http.MethodGet,
			ExpectedStatusCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s %s", tc.Method, tc.URL), func(t *testing.T) {
			t.Parallel()
			tc.setDefault()

			var req *http.Request
			if tc.FormData != nil {
				req = buildRequestWithFormData(t, authority+tc.URL, tc.Method, tc.FormData)
			} else {
				req = buildRequest(t, authority+tc.URL, tc.Method)
			}

			resp := makeRequest(t, req)
			defer resp.Body.Close()

			if resp.StatusCode != tc.ExpectedStatusCode {
				t.Errorf("expected status %d, got %d", tc.ExpectedStatusCode, resp.StatusCode)
			}

			if tc.ExpectedLocation != "" && resp.Header.Get("Location") != tc.ExpectedLocation {
				t.Errorf("expected location %q, got %q", tc.ExpectedLocation, resp.Header.Get("Location"))
			}
		})
	}
}

func buildRequest(t *testing.T, link, method string) *http.Request {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, link, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0")

	return req
}

func buildRequestWithFormData(t *testing.T, link, method string, formData map[string]string) *http.Request {
	t.Helper()

	form := url.Values{}

	for k, v := range formData {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, link, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0")
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	return req
}

func makeRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := noRedirectClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	return resp
}
