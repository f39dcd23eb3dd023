package findlink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olgasafonova/findlink-mcp-server/internal/base"
	ferrors "github.com/olgasafonova/findlink-mcp-server/internal/errors"
	"github.com/olgasafonova/findlink-mcp-server/internal/wiki"
)

// fakeWiki is an httptest server whose replies are computed from the request parameters.
type fakeWiki struct {
	mu       sync.Mutex
	requests []url.Values
	methods  []string
	reply    func(params url.Values) any
}

func (w *fakeWiki) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.requests = append(w.requests, r.Form)
	w.methods = append(w.methods, r.Method)
	w.mu.Unlock()

	rw.Header().Set("Content-Type", "application/json")
	switch body := w.reply(r.Form).(type) {
	case string:
		_, _ = io.WriteString(rw, body)
	default:
		_ = json.NewEncoder(rw).Encode(body)
	}
}

func (w *fakeWiki) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}

func (w *fakeWiki) request(i int) url.Values {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.requests[i]
}

func newTestClient(t *testing.T, reply func(url.Values) any, opts ...ClientOption) (*Client, *fakeWiki) {
	t.Helper()
	fw := &fakeWiki{reply: reply}
	server := httptest.NewServer(fw)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := base.NewSession(server.URL,
		base.WithLogger(logger),
		base.WithConnRetries(0, time.Millisecond, time.Millisecond),
	)
	fetcher := wiki.NewFetcher(session, wiki.WithLogger(logger), wiki.WithDecodeBackoff(time.Millisecond))
	return NewClient(fetcher, append([]ClientOption{WithLogger(logger)}, opts...)...), fw
}

type obj = map[string]any

func titleDocs(titles ...string) []obj {
	out := make([]obj, len(titles))
	for i, t := range titles {
		out[i] = obj{"ns": 0, "title": t}
	}
	return out
}

func TestSearch_FollowsOffsetContinuation(t *testing.T) {
	c, fw := newTestClient(t, func(p url.Values) any {
		switch p.Get("sroffset") {
		case "":
			return obj{
				"continue": obj{"sroffset": 2, "continue": "-||"},
				"query": obj{
					"searchinfo": obj{"totalhits": 5},
					"search": []obj{
						{"title": "Solar System", "snippet": `the <span class="searchmatch">planet</span>`},
						{"title": "Roman mythology", "snippet": "god"},
					},
				},
			}
		case "2":
			return obj{
				"continue": obj{"sroffset": 4, "continue": "-||"},
				"query": obj{
					"searchinfo": obj{"totalhits": 5},
					"search":     []obj{{"title": "Hermes"}, {"title": "Quicksilver"}},
				},
			}
		default:
			return obj{"query": obj{"searchinfo": obj{"totalhits": 5}, "search": []obj{{"title": "Alchemy"}}}}
		}
	})

	res, err := c.Search(context.Background(), "Mercury (planet)")
	require.NoError(t, err)

	assert.Equal(t, 5, res.TotalHits)
	require.Len(t, res.Results, 5)
	assert.Equal(t, "Solar System", res.Results[0].Title)
	assert.Contains(t, res.Results[0].Snippet, "searchmatch")
	assert.Equal(t, "Alchemy", res.Results[4].Title)

	require.Equal(t, 3, fw.count())
	first := fw.request(0)
	assert.Equal(t, `"Mercury"`, first.Get("srsearch"))
	assert.Equal(t, "text", first.Get("srwhat"))
	assert.Equal(t, "50", first.Get("srlimit"))
	assert.Equal(t, "4", fw.request(2).Get("sroffset"))
}

func TestSearch_NoResults(t *testing.T) {
	c, fw := newTestClient(t, func(url.Values) any {
		return obj{"query": obj{"searchinfo": obj{"totalhits": 0}, "search": []obj{}}}
	})

	res, err := c.Search(context.Background(), "Xyzzy plugh")
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalHits)
	assert.NotNil(t, res.Results)
	assert.Equal(t, 1, fw.count())
}

func TestSearch_EmptyQuery(t *testing.T) {
	c, fw := newTestClient(t, func(url.Values) any { return obj{} })
	_, err := c.Search(context.Background(), "  ")
	assert.True(t, ferrors.IsValidation(err))
	assert.Equal(t, 0, fw.count())
}

func TestSearch_OnlyQualifier(t *testing.T) {
	c, fw := newTestClient(t, func(url.Values) any { return obj{} })
	for _, q := range []string{"(film)", " (band) (album) "} {
		_, err := c.Search(context.Background(), q)
		assert.True(t, ferrors.IsValidation(err), "query %q", q)
	}
	assert.Equal(t, 0, fw.count())
}

func TestGetInfo(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		title     string
		wantTitle string
		wantRedir string
		check     func(error) bool
	}{
		{
			name:      "article",
			title:     "Paris",
			reply:     `{"query":{"pages":[{"pageid":22989,"ns":0,"title":"Paris"}]}}`,
			wantTitle: "Paris",
		},
		{
			name:      "redirect",
			title:     "Einstein",
			reply:     `{"query":{"redirects":[{"from":"Einstein","to":"Albert Einstein"}],"pages":[{"pageid":736,"ns":0,"title":"Albert Einstein"}]}}`,
			wantTitle: "Albert Einstein",
			wantRedir: "Albert Einstein",
		},
		{
			name:  "missing",
			title: "Qwertyuiop zxcv",
			reply: `{"query":{"pages":[{"ns":0,"title":"Qwertyuiop zxcv","missing":true}]}}`,
			check: ferrors.IsMissingPage,
		},
		{
			name:  "double redirect record",
			title: "A",
			reply: `{"query":{"redirects":[{"from":"A","to":"B"},{"from":"B","to":"C"}],"pages":[{"title":"C"}]}}`,
			check: ferrors.IsProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fw := newTestClient(t, func(url.Values) any { return tt.reply })

			page, err := c.GetInfo(context.Background(), tt.title)
			if tt.check != nil {
				require.Error(t, err)
				assert.True(t, tt.check(err), "unexpected error type: %v", err)
				assert.Nil(t, page)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTitle, page.Title)
				assert.Equal(t, tt.wantRedir, page.RedirectsTo)
			}

			req := fw.request(0)
			assert.Equal(t, "info", req.Get("prop"))
			assert.Contains(t, req, "redirects")
			assert.Equal(t, tt.title, req.Get("titles"))
		})
	}
}

func TestGetInfo_MissingCarriesRequestedTitle(t *testing.T) {
	c, _ := newTestClient(t, func(url.Values) any {
		return `{"query":{"normalized":[{"from":"foo bar","to":"Foo bar"}],"pages":[{"title":"Foo bar","missing":true}]}}`
	})

	_, err := c.GetInfo(context.Background(), "foo bar")
	var missing *ferrors.MissingPageError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "foo bar", missing.Title)
}

func TestResolveTitle_MatchesQueryCase(t *testing.T) {
	c, _ := newTestClient(t, func(p url.Values) any {
		return fmt.Sprintf(`{"query":{"redirects":[{"from":%q,"to":"Machine learning"}],"pages":[{"title":"Machine learning"}]}}`, p.Get("titles"))
	})

	page, err := c.ResolveTitle(context.Background(), "machine Learning")
	require.NoError(t, err)
	assert.Equal(t, "machine learning", page.RedirectsTo)
	assert.Equal(t, "machine learning", page.Resolved())

	page, err = c.ResolveTitle(context.Background(), "ML")
	require.NoError(t, err)
	assert.Equal(t, "Machine learning", page.RedirectsTo)
}

func TestResolveTitle_ConcurrentCallsShareResult(t *testing.T) {
	c, _ := newTestClient(t, func(url.Values) any {
		return `{"query":{"pages":[{"title":"Oslo"}]}}`
	})

	var wg sync.WaitGroup
	pages := make([]*Page, 8)
	for i := range pages {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.ResolveTitle(context.Background(), "Oslo")
			assert.NoError(t, err)
			pages[i] = p
		}()
	}
	wg.Wait()

	for _, p := range pages {
		require.NotNil(t, p)
		assert.Equal(t, "Oslo", p.Title)
	}
	pages[0].Title = "mutated"
	assert.Equal(t, "Oslo", pages[1].Title, "callers must not share one Page value")
}

func TestResolveTitle_OneCallerCancelingDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	c, fw := newTestClient(t, func(url.Values) any {
		<-release
		return `{"query":{"pages":[{"title":"Oslo"}]}}`
	})
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()

	ctx1, cancel1 := context.WithCancel(context.Background())
	err1 := make(chan error, 1)
	go func() {
		_, err := c.ResolveTitle(ctx1, "Oslo")
		err1 <- err
	}()
	require.Eventually(t, func() bool { return fw.count() == 1 }, time.Second, time.Millisecond)

	type result struct {
		page *Page
		err  error
	}
	res2 := make(chan result, 1)
	go func() {
		p, err := c.ResolveTitle(context.Background(), "Oslo")
		res2 <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	select {
	case err := <-err1:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case r := <-res2:
		require.NoError(t, r.err)
		assert.Equal(t, "Oslo", r.page.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestAllPagesAndCategoryStart(t *testing.T) {
	c, fw := newTestClient(t, func(p url.Values) any {
		if p.Get("apnamespace") == "14" {
			return obj{"query": obj{"allpages": titleDocs("Category:Rivers", "Category:Rivers of Norway")}}
		}
		return obj{"query": obj{"allpages": titleDocs("Rivers", "Rivers Edge", "Riverside")}}
	})

	longer, err := c.AllPages(context.Background(), "Rivers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rivers Edge", "Riverside"}, longer)

	cats, err := c.CategoryStart(context.Background(), "Category:Rivers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Category:Rivers of Norway"}, cats)

	req := fw.request(0)
	assert.Equal(t, "allpages", req.Get("list"))
	assert.Equal(t, "nonredirects", req.Get("apfilterredir"))
	assert.Equal(t, "500", req.Get("aplimit"))
	assert.Equal(t, "Rivers", req.Get("apprefix"))
	assert.NotContains(t, req, "continue", "allpages is a single unpaginated request")
}

func TestCategoryMembers(t *testing.T) {
	c, fw := newTestClient(t, func(url.Values) any {
		return obj{"query": obj{"categorymembers": titleDocs("Glomma", "category:rivers", "Lågen")}}
	})

	members, err := c.CategoryMembers(context.Background(), "category:rivers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Glomma", "Lågen"}, members)
	assert.Equal(t, "Category:rivers", fw.request(0).Get("cmtitle"))
	assert.Equal(t, "0", fw.request(0).Get("cmnamespace"))
}

func TestNewPages(t *testing.T) {
	c, fw := newTestClient(t, func(url.Values) any {
		return obj{"query": obj{"recentchanges": []obj{
			{"title": "New article", "timestamp": "2026-10-18T09:00:00Z", "user": "Editor", "comment": "Created"},
		}}}
	})

	pages, err := c.NewPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "New article", pages[0].Title)
	assert.Equal(t, "Editor", pages[0].User)

	req := fw.request(0)
	assert.Equal(t, "recentchanges", req.Get("list"))
	assert.Equal(t, "new", req.Get("rctype"))
	assert.Equal(t, "!redirect", req.Get("rcshow"))
	assert.Equal(t, "50", req.Get("rclimit"))
}

func TestAPIErrorIsSurfaced(t *testing.T) {
	c, _ := newTestClient(t, func(url.Values) any {
		return `{"error":{"code":"readapidenied","info":"You need read permission"}}`
	})

	_, err := c.NewPages(context.Background())
	var apiErr *ferrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "readapidenied", apiErr.Code)
}

func TestDecodeFailureSurfacesAfterRetries(t *testing.T) {
	c, fw := newTestClient(t, func(url.Values) any { return "<html>Our servers are under maintenance</html>" })

	_, err := c.AllPages(context.Background(), "Foo")
	assert.True(t, ferrors.IsDecode(err))
	assert.Equal(t, wiki.DefaultMaxAttempts, fw.count())
}

func TestNewFromConfig(t *testing.T) {
	fw := &fakeWiki{reply: func(url.Values) any { return `{"query":{"pages":[{"title":"Foo"}]}}` }}
	server := httptest.NewServer(fw)
	defer server.Close()

	cfg := testConfig(server.URL)
	c := NewFromConfig(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	page, err := c.GetInfo(context.Background(), "Foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo", page.Title)
	assert.Equal(t, cfg.BatchSize, c.batchSize)
	assert.Len(t, c.disambig, 1)
}

func TestErrorWrappingKeepsType(t *testing.T) {
	c, _ := newTestClient(t, func(url.Values) any {
		return `{"query":{"pages":[{"title":"Gone","missing":true}]}}`
	})
	_, err := c.GetContent(context.Background(), "Gone")
	assert.True(t, strings.Contains(err.Error(), "Gone"))
	assert.True(t, ferrors.IsMissingPage(fmt.Errorf("tool: %w", err)))
}
