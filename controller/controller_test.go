package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsingjyujing/langid/charset"
	"github.com/tsingjyujing/langid/lid"
	"github.com/tsingjyujing/langid/profiles"
	"golang.org/x/text/encoding/charmap"
)

type fakeIdentifier struct {
	lang  string
	err   error
	calls int
}

func (f *fakeIdentifier) Identify(context.Context, string) (string, error) {
	f.calls++
	return f.lang, f.err
}

type fakeDetector []charset.Match

func (f fakeDetector) DetectAll([]byte) ([]charset.Match, error) {
	return f, nil
}

func newPool(t *testing.T) *lid.Pool {
	t.Helper()
	codes, err := profiles.Codes()
	require.NoError(t, err)
	index, err := lid.LoadIndex(context.Background(), codes, profiles.EmbedSource{}, lid.IndexOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, index.MinLength())
	require.Equal(t, 4, index.MaxLength())
	pool := lid.NewPool(index, lid.PoolConfig{Size: 2})
	t.Cleanup(pool.Close)
	return pool
}

func newResolver(matches ...charset.Match) *charset.Resolver {
	return charset.NewResolver(fakeDetector(matches), charset.Options{MinConfidence: 50})
}

func TestLanguage(t *testing.T) {
	t.Run("short text shortcut", func(t *testing.T) {
		identifier := &fakeIdentifier{lang: "de"}
		c := NewController(identifier, newResolver(), Options{ShortTextThreshold: 10})
		assert.Equal(t, "en", c.Language(context.Background(), "Hallo"))
		assert.Zero(t, identifier.calls)
		assert.Equal(t, "de", c.Language(context.Background(), "Guten Morgen zusammen"))
		assert.Equal(t, 1, identifier.calls)
	})

	t.Run("disabled shortcut", func(t *testing.T) {
		identifier := &fakeIdentifier{lang: "de"}
		c := NewController(identifier, newResolver(), Options{})
		assert.Equal(t, "de", c.Language(context.Background(), "Hallo"))
	})

	t.Run("no match is empty", func(t *testing.T) {
		c := NewController(&fakeIdentifier{}, newResolver(), Options{})
		assert.Equal(t, "", c.Language(context.Background(), "1234"))
	})

	t.Run("unavailable identifier", func(t *testing.T) {
		identifier := &fakeIdentifier{err: lid.ErrPoolExhausted}
		c := NewController(identifier, newResolver(), Options{})
		assert.Equal(t, Undetermined, c.Language(context.Background(), "Hallo"))
	})
}

func TestEncoding(t *testing.T) {
	c := NewController(&fakeIdentifier{}, newResolver(charset.Match{Name: "ISO-8859-1", Confidence: 80}), Options{DefaultEncoding: "utf-8"})
	assert.Equal(t, "windows-1252", c.Encoding([]byte("caf\xe9 cr\xe8me"), ""))
	// too short for detection
	assert.Equal(t, "utf-8", c.Encoding([]byte("abc"), ""))
	assert.Equal(t, "shift_jis", c.Encoding([]byte("abc"), "Shift_JIS"))
}

func TestIdentifyLanguageHandler(t *testing.T) {
	pool := newPool(t)
	c := NewController(pool, newResolver(), Options{Languages: pool.Index().Languages()})
	e := echo.New()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "german", content: "Die Kinder gehen jeden Morgen mit ihren Freunden in die Schule.", want: "de"},
		{name: "english", content: "The children walk to school with their friends every morning.", want: "en"},
		{name: "french", content: "Les enfants vont à l'école avec leurs amis tous les matins.", want: "fr"},
		{name: "nothing to match", content: "1234 5678", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(LanguageRequest{Content: tt.content})
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/language", bytes.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			require.NoError(t, c.IdentifyLanguage(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusOK, rec.Code)

			var response LanguageResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.want, response.Language)
			assert.Empty(t, response.Scores)
		})
	}
}

func TestIdentifyLanguageHandlerScores(t *testing.T) {
	e := echo.New()
	body := `{"content": "Der Hund schläft unter dem Tisch in der Küche."}`

	pool := newPool(t)
	c := NewController(pool, newResolver(), Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/language?scores=1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, c.IdentifyLanguage(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var response LanguageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "de", response.Language)
	require.NotEmpty(t, response.Scores)
	best := response.Scores[0]
	for _, s := range response.Scores {
		if s.Score > best.Score {
			best = s
		}
	}
	assert.Equal(t, "de", best.Language)

	// alternative backends cannot score
	c = NewController(&fakeIdentifier{lang: "de"}, newResolver(), Options{})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/language?scores=true", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	require.NoError(t, c.IdentifyLanguage(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentifyLanguageHandlerBadRequest(t *testing.T) {
	e := echo.New()
	c := NewController(&fakeIdentifier{lang: "en"}, newResolver(), Options{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/language", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, c.IdentifyLanguage(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuessEncodingHandler(t *testing.T) {
	e := echo.New()
	c := NewController(&fakeIdentifier{}, newResolver(charset.Match{Name: "GBK", Confidence: 90}), Options{DefaultEncoding: "utf-8"})

	tests := []struct {
		name  string
		body  []byte
		query string
		want  string
	}{
		{name: "detected alias", body: []byte("\xc4\xe3\xba\xc3\xca\xc0\xbd\xe7"), want: "gb18030"},
		{name: "short body uses configured default", body: []byte("ab"), want: "utf-8"},
		{name: "short body uses query default", body: []byte("ab"), query: "?default=EUC-KR", want: "x-windows-949"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/encoding"+tt.query, bytes.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
			rec := httptest.NewRecorder()

			require.NoError(t, c.GuessEncoding(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusOK, rec.Code)

			var response EncodingResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.want, response.Encoding)
		})
	}
}

func TestListLanguagesHandler(t *testing.T) {
	e := echo.New()
	c := NewController(&fakeIdentifier{}, newResolver(), Options{Languages: []string{"en", "de", "xx"}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/languages", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, c.ListLanguages(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var result []profiles.Mapping
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []profiles.Mapping{
		{Code: "en", Name: "English"},
		{Code: "de", Name: "German"},
		{Code: "xx", Name: ""},
	}, result)
}

func TestPoolStatsHandler(t *testing.T) {
	e := echo.New()

	pool := newPool(t)
	_, err := pool.Identify(context.Background(), "Hyvää huomenta kaikille")
	require.NoError(t, err)
	c := NewController(pool, newResolver(), Options{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/language/stats", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, c.PoolStats(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats lid.PoolStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Idle)
	assert.Zero(t, stats.InUse)

	c = NewController(&fakeIdentifier{}, newResolver(), Options{})
	rec = httptest.NewRecorder()
	require.NoError(t, c.PoolStats(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClose(t *testing.T) {
	pool := newPool(t)
	c := NewController(pool, newResolver(), Options{})
	require.NoError(t, c.Close())
	_, err := pool.Identify(context.Background(), "hello")
	assert.True(t, errors.Is(err, lid.ErrPoolClosed))
}

const frenchSentence = "Les élèves rentrent à l'école chaque matin avec leurs frères et leurs sœurs."

func windows1252(t *testing.T, text string) []byte {
	t.Helper()
	// œ is 0x9c in windows-1252 but missing from ISO-8859-1
	data, err := charmap.Windows1252.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	return data
}

func TestDecode(t *testing.T) {
	data := windows1252(t, frenchSentence)
	c := NewController(&fakeIdentifier{}, newResolver(charset.Match{Name: "ISO-8859-1", Confidence: 80}), Options{DefaultEncoding: "utf-8"})

	text, used, err := c.Decode(data, "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, frenchSentence, text)
	assert.Equal(t, "windows-1252", used)

	for _, auto := range []string{"", "auto", "AUTO"} {
		text, used, err = c.Decode(data, auto)
		require.NoError(t, err)
		assert.Equal(t, frenchSentence, text)
		assert.Equal(t, "windows-1252", used)
	}

	_, _, err = c.Decode(data, "klingon-8")
	assert.Error(t, err)
}

func TestLanguageOf(t *testing.T) {
	pool := newPool(t)
	c := NewController(pool, newResolver(charset.Match{Name: "ISO-8859-1", Confidence: 80}), Options{})
	data := windows1252(t, frenchSentence)

	lang, err := c.LanguageOf(context.Background(), data, "windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	lang, err = c.LanguageOf(context.Background(), data, "")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	_, err = c.LanguageOf(context.Background(), data, "klingon-8")
	assert.Error(t, err)
}

func TestIdentifyLanguageHandlerCharset(t *testing.T) {
	e := echo.New()
	pool := newPool(t)
	c := NewController(pool, newResolver(charset.Match{Name: "ISO-8859-1", Confidence: 80}), Options{})
	data := windows1252(t, frenchSentence)

	tests := []struct {
		name     string
		query    string
		status   int
		encoding string
	}{
		{name: "explicit charset", query: "?charset=windows-1252", status: http.StatusOK, encoding: "windows-1252"},
		{name: "latin1 label", query: "?charset=ISO-8859-1", status: http.StatusOK, encoding: "iso-8859-1"},
		{name: "guessed charset", query: "?charset=auto", status: http.StatusOK, encoding: "windows-1252"},
		{name: "unknown charset", query: "?charset=klingon-8", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/language"+tt.query, bytes.NewReader(data))
			req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
			rec := httptest.NewRecorder()

			require.NoError(t, c.IdentifyLanguage(e.NewContext(req, rec)))
			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			var response LanguageResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, "fr", response.Language)
			assert.Equal(t, tt.encoding, response.Encoding)
		})
	}
}

func TestLanguageLogsContentPreview(t *testing.T) {
	hook := logtest.NewLocal(logger)
	defer hook.Reset()
	level := logger.GetLevel()
	logger.SetLevel(logrus.InfoLevel)
	defer logger.SetLevel(level)

	c := NewController(&fakeIdentifier{lang: "en"}, newResolver(), Options{})
	content := strings.Repeat("a", 95) + "ééééééééé"
	assert.Equal(t, "en", c.Language(context.Background(), content))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "en", entry.Data["language"])
	assert.Equal(t, strings.Repeat("a", 95)+"ééééé", entry.Data["content"])
}
