package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/artic-select/pkg/pagination"
)

const (
	// ArtworksPath is the artworks listing endpoint relative to BaseURL.
	ArtworksPath = "/artworks"

	// MaxPageSize is the largest limit the API accepts.
	MaxPageSize = 100

	// NotAvailable is shown for any empty field.
	NotAvailable = "N/A"
)

// DefaultFields lists the artwork fields requested from the API.
func DefaultFields() []string {
	return []string{"id", "title", "place_of_origin", "artist_display", "inscriptions", "date_start", "date_end"}
}

// Artwork is one record of the collection.
type Artwork struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`
	DateStart     *int   `json:"date_start"`
	DateEnd       *int   `json:"date_end"`
}

// Columns returns the display values in table order, with N/A for blanks.
func (a Artwork) Columns() []string {
	return []string{
		DisplayText(a.Title),
		DisplayText(a.PlaceOfOrigin),
		DisplayText(a.ArtistDisplay),
		DisplayText(a.Inscriptions),
		DisplayYear(a.DateStart),
		DisplayYear(a.DateEnd),
	}
}

// DisplayText returns s, or N/A when s is blank.
func DisplayText(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// DisplayYear formats a nullable year.
func DisplayYear(year *int) string {
	if year == nil {
		return NotAvailable
	}
	return strconv.Itoa(*year)
}

// Pagination is the paging block of a listing response.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// ArtworksResponse is the body of GET /artworks.
type ArtworksResponse struct {
	Pagination Pagination `json:"pagination"`
	Data       []Artwork  `json:"data"`
}

// Artworks fetches one page of the collection.
func (c *Client) Artworks(ctx context.Context, page, limit int) (*ArtworksResponse, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1 (got %d)", ErrInvalidPage, page)
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d (got %d)", ErrInvalidPage, MaxPageSize, limit)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("fields", strings.Join(c.config.Fields, ","))

	resp, err := c.Get(ctx, ArtworksPath, query)
	if err != nil {
		return nil, fmt.Errorf("get artworks page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: c.classifyError(resp, nil),
			Message:    strings.TrimSpace(resp.Status + " " + string(body)),
		}
	}

	var out ArtworksResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode artworks page %d: %w", page, err)
	}

	for i := range out.Data {
		if strings.TrimSpace(out.Data[i].Inscriptions) == "" {
			out.Data[i].Inscriptions = NotAvailable
		}
	}

	c.logger.Debug().
		Int("page", page).
		Int("page_size", limit).
		Int("total", out.Pagination.Total).
		Int("records", len(out.Data)).
		Msg("Fetched artworks page")

	return &out, nil
}

// FetchPage implements pagination.PageFetcher for artworks.
func (c *Client) FetchPage(ctx context.Context, page, size int) (pagination.Page[Artwork], error) {
	resp, err := c.Artworks(ctx, page, size)
	if err != nil {
		return pagination.Page[Artwork]{Number: page, Size: size}, err
	}

	return pagination.Page[Artwork]{
		Number:  page,
		Size:    size,
		Total:   resp.Pagination.Total,
		Records: resp.Data,
	}, nil
}

var _ pagination.PageFetcher[Artwork] = (*Client)(nil)
