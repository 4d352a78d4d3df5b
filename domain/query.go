package domain

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// TaskQuery is a validated list request with every default filled in. Two
// requests with the same effective meaning produce equal TaskQuery values.
type TaskQuery struct {
	Status   Status    `json:"status"`
	Priority Priority  `json:"priority"`
	Search   string    `json:"search"`
	Tags     []string  `json:"tags"`
	SortBy   SortField `json:"sortBy"`
	Order    SortOrder `json:"order"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// ParseTaskQuery validates and normalizes list parameters.
func ParseTaskQuery(values url.Values) (TaskQuery, error) {
	q := TaskQuery{
		Tags:   []string{},
		SortBy: SortCreatedAt,
		Order:  Desc,
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}
	verr := &ValidationError{}

	if v := strings.TrimSpace(values.Get("status")); v != "" {
		s, err := StatusFromString(v)
		if err != nil {
			verr.Add("status", "must be one of OPEN, IN_PROGRESS, DONE")
		}
		q.Status = s
	}
	if v := strings.TrimSpace(values.Get("priority")); v != "" {
		p, err := PriorityFromString(v)
		if err != nil {
			verr.Add("priority", "must be one of LOW, MEDIUM, HIGH")
		}
		q.Priority = p
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	q.Tags = SplitTags(values.Get("tags"))

	if v := strings.TrimSpace(values.Get("sortBy")); v != "" {
		if !validSortField(SortField(v)) {
			verr.Add("sortBy", "unsupported sort field")
		}
		q.SortBy = SortField(v)
	}
	if v := strings.ToLower(strings.TrimSpace(values.Get("order"))); v != "" {
		if v != string(Asc) && v != string(Desc) {
			verr.Add("order", "must be asc or desc")
		}
		q.Order = SortOrder(v)
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			verr.Add("page", "must be a positive integer")
		}
		q.Page = n
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			verr.Add("limit", "must be an integer between 1 and "+strconv.Itoa(MaxLimit))
		}
		q.Limit = n
	}

	if err := verr.Err(); err != nil {
		return TaskQuery{}, err
	}
	return q, nil
}

// SplitTags turns a comma separated list into a sorted set of non-empty tags.
func SplitTags(raw string) []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func validSortField(f SortField) bool {
	for _, s := range SortFields {
		if s == f {
			return true
		}
	}
	return false
}

func (q TaskQuery) Filter(ownerId string) TaskFilter {
	return TaskFilter{
		OwnerId:  ownerId,
		Status:   q.Status,
		Priority: q.Priority,
		Search:   q.Search,
		Tags:     q.Tags,
	}
}

func (q TaskQuery) Sort() TaskSort {
	return TaskSort{Field: q.SortBy, Order: q.Order}
}

func (q TaskQuery) Skip() int {
	return (q.Page - 1) * q.Limit
}

// CacheKeyPrefix is the namespace holding every cached list result of a user.
func CacheKeyPrefix(userId string) string {
	return "tasks:" + userId + ":"
}

// CacheKey derives the cache key of q for userId from its canonical JSON form.
func (q TaskQuery) CacheKey(userId string) string {
	b, _ := json.Marshal(q)
	return CacheKeyPrefix(userId) + string(b)
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

type Page struct {
	Data Tasks    `json:"data"`
	Meta PageMeta `json:"meta"`
}

func NewPage(data Tasks, total int64, q TaskQuery) Page {
	if data == nil {
		data = Tasks{}
	}
	return Page{
		Data: data,
		Meta: PageMeta{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: TotalPages(total, q.Limit),
		},
	}
}

func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
