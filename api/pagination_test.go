// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaultValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/proposals", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, DefaultPaginationCount, params.Count)
	assert.Equal(t, DefaultPaginationPage, params.Page)
	assert.Equal(t, PaginationOrderAsc, params.Order)
}

func TestParsePaginationClampBounds(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/proposals?count=999&page=0&order=DESC",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, MaxPaginationCount, params.Count)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, PaginationOrderDesc, params.Order)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/proposals?count=-3", nil)
	params, err = ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 1, params.Count)
}

func TestParsePaginationLargePage(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/proposals?page=92233720368547760&count=100",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, MaxPaginationPage, params.Page)
	assert.Equal(t, 100, params.Count)
	assert.Equal(t, []int{}, paginate([]int{1, 2, 3}, params))

	// Offsets past the end never wrap around
	for _, page := range []int{math.MaxInt, math.MaxInt / 2, MaxPaginationPage + 1} {
		assert.Equal(
			t,
			[]int{},
			paginate([]int{1, 2, 3}, PaginationParams{Count: 100, Page: page}),
			page,
		)
	}
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, query := range []string{"count=abc", "page=abc", "order=random"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/proposals?"+query, nil)
		_, err := ParsePagination(req)
		require.True(t, errors.Is(err, ErrInvalidPaginationParameters), query)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	testDefs := []struct {
		params   PaginationParams
		expected []int
	}{
		{PaginationParams{Count: 2, Page: 1, Order: PaginationOrderAsc}, []int{1, 2}},
		{PaginationParams{Count: 2, Page: 3, Order: PaginationOrderAsc}, []int{5}},
		{PaginationParams{Count: 2, Page: 4, Order: PaginationOrderAsc}, []int{}},
		{PaginationParams{Count: 3, Page: 1, Order: PaginationOrderDesc}, []int{5, 4, 3}},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, paginate(items, testDef.params))
	}
	// The input is not reordered in place
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

func TestSetPaginationHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetPaginationHeaders(rec, 7, PaginationParams{Count: 3})
	assert.Equal(t, "7", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Page-Total"))

	rec = httptest.NewRecorder()
	SetPaginationHeaders(rec, -1, PaginationParams{})
	assert.Equal(t, "0", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "0", rec.Header().Get("X-Pagination-Page-Total"))
}
