package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/query"
	"github.com/ssargent/wpilogviewer/pkg/value"
)

// handleHealth godoc
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleHeader godoc
//
//	@Summary		Log header and decoding summary
//	@Tags			log
//	@Produce		json
//	@Success		200	{object}	HeaderResponse
//	@Router			/header [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHeader(w http.ResponseWriter, r *http.Request) {
	h := s.index.Header()
	sendSuccess(w, HeaderResponse{
		Version:        h.Version(),
		ExtraHeader:    string(h.Extra),
		Bytes:          s.summary.Bytes,
		ControlRecords: s.summary.ControlRecords,
		ValueRecords:   s.summary.ValueRecords,
		Digest:         fmt.Sprintf("%016x", s.summary.Digest),
	})
}

// handleListChannels godoc
//
//	@Summary		List channel incarnations
//	@Description	Without at, every incarnation; with at, those live at that timestamp.
//	@Tags			channels
//	@Produce		json
//	@Param			at	query		integer	false	"Timestamp"
//	@Success		200	{array}		ChannelResponse
//	@Failure		400	{object}	APIResponse
//	@Router			/channels [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	at, hasAt, err := queryUint(r, "at", 0)
	if err != nil {
		s.metrics.RecordQuery("list", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var entries []*index.Entry
	if hasAt {
		entries = s.index.ActiveAt(at)
	} else {
		entries = s.index.Entries()
	}

	channels := make([]ChannelResponse, 0, len(entries))
	for _, e := range entries {
		channels = append(channels, channelResponse(e, at, hasAt))
	}
	s.metrics.RecordQuery("list", true)
	sendSuccess(w, channels)
}

// handleGetChannel godoc
//
//	@Summary		Get the incarnation of a channel
//	@Tags			channels
//	@Produce		json
//	@Param			id	path		integer	true	"Channel ID"
//	@Param			at	query		integer	false	"Timestamp; defaults to the latest incarnation"
//	@Success		200	{object}	ChannelResponse
//	@Failure		400	{object}	APIResponse
//	@Failure		404	{object}	APIResponse
//	@Router			/channels/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	e, at, hasAt, status, err := s.lookup(r)
	if err != nil {
		s.metrics.RecordQuery("channel", false)
		sendError(w, err.Error(), status)
		return
	}
	s.metrics.RecordQuery("channel", true)
	sendSuccess(w, channelResponse(e, at, hasAt))
}

// handleGetValues godoc
//
//	@Summary		Get the value history of a channel incarnation
//	@Tags			channels
//	@Produce		json
//	@Param			id		path		integer	true	"Channel ID"
//	@Param			at		query		integer	false	"Timestamp selecting the incarnation"
//	@Param			from	query		integer	false	"First timestamp, inclusive"
//	@Param			to		query		integer	false	"Last timestamp, inclusive"
//	@Param			where	query		string	false	"Numeric filter such as >=1.5"
//	@Param			element	query		integer	false	"Array element the filter reads"
//	@Success		200		{object}	ValuesResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Router			/channels/{id}/values [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetValues(w http.ResponseWriter, r *http.Request) {
	e, at, hasAt, status, err := s.lookup(r)
	if err != nil {
		s.metrics.RecordQuery("values", false)
		sendError(w, err.Error(), status)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		s.metrics.RecordQuery("values", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	it, err := s.engine.Execute(r.Context(), e, q)
	if err != nil {
		s.metrics.RecordQuery("values", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer it.Close()

	out := make([]RecordResponse, 0)
	for it.Next() {
		rec := it.Record()
		out = append(out, RecordResponse{
			Timestamp: rec.Timestamp,
			Kind:      rec.Kind().String(),
			Value:     value.JSON(rec.Value),
		})
	}

	s.metrics.RecordQuery("values", true)
	s.metrics.RecordRecordsServed(len(out))
	sendSuccess(w, ValuesResponse{
		Channel: channelResponse(e, at, hasAt),
		Records: out,
	})
}

// handleGetStats godoc
//
//	@Summary		Summarise the numeric values of a channel incarnation
//	@Tags			channels
//	@Produce		json
//	@Param			id		path		integer	true	"Channel ID"
//	@Param			at		query		integer	false	"Timestamp selecting the incarnation"
//	@Param			from	query		integer	false	"First timestamp, inclusive"
//	@Param			to		query		integer	false	"Last timestamp, inclusive"
//	@Param			where	query		string	false	"Numeric filter such as >=1.5"
//	@Param			element	query		integer	false	"Array element to read"
//	@Success		200		{object}	StatsResponse
//	@Failure		400		{object}	APIResponse
//	@Failure		404		{object}	APIResponse
//	@Router			/channels/{id}/stats [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	e, at, hasAt, status, err := s.lookup(r)
	if err != nil {
		s.metrics.RecordQuery("stats", false)
		sendError(w, err.Error(), status)
		return
	}

	q, err := parseQuery(r)
	if err != nil {
		s.metrics.RecordQuery("stats", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := s.engine.Stats(r.Context(), e, q)
	if err != nil {
		s.metrics.RecordQuery("stats", false)
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.metrics.RecordQuery("stats", true)
	sendSuccess(w, StatsResponse{
		Channel: channelResponse(e, at, hasAt),
		Stats:   stats,
	})
}

// parseQuery reads the from, to, where and element query parameters.
func parseQuery(r *http.Request) (query.Query, error) {
	var q query.Query
	var err error
	if q.From, _, err = queryUint(r, "from", 0); err != nil {
		return q, err
	}
	if q.To, _, err = queryUint(r, "to", math.MaxUint64); err != nil {
		return q, err
	}
	if q.From > q.To {
		return q, fmt.Errorf("from must not be after to")
	}

	if raw := r.URL.Query().Get("where"); raw != "" {
		cond, err := query.ParseCondition(raw)
		if err != nil {
			return q, err
		}
		q.Condition = &cond
	}
	if raw := r.URL.Query().Get("element"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 {
			return q, fmt.Errorf("invalid element %q", raw)
		}
		q.Extractor = query.ElementExtractor{Index: i}
	}
	return q, nil
}

// lookup resolves the {id} path parameter and the optional at query. Without
// at, the latest incarnation of the channel is returned.
func (s *Server) lookup(r *http.Request) (*index.Entry, uint64, bool, int, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		return nil, 0, false, http.StatusBadRequest, fmt.Errorf("invalid channel id %q", chi.URLParam(r, "id"))
	}
	at, hasAt, err := queryUint(r, "at", 0)
	if err != nil {
		return nil, 0, false, http.StatusBadRequest, err
	}

	if !hasAt {
		starts := s.index.StartTimestamps(uint32(id))
		if len(starts) == 0 {
			return nil, 0, false, http.StatusNotFound, fmt.Errorf("channel %d not found", id)
		}
		at = starts[len(starts)-1]
	}

	e, ok := s.index.EntryAt(uint32(id), at)
	if !ok {
		return nil, 0, false, http.StatusNotFound, fmt.Errorf("channel %d not active at %d", id, at)
	}
	return e, at, hasAt, http.StatusOK, nil
}

// queryUint parses an optional unsigned query parameter.
func queryUint(r *http.Request, name string, def uint64) (uint64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, false, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, true, nil
}

// channelResponse describes e. Metadata is taken as of at when given,
// otherwise the latest.
func channelResponse(e *index.Entry, at uint64, hasAt bool) ChannelResponse {
	resp := ChannelResponse{
		ID:      e.ID,
		Name:    e.Name,
		Type:    e.Type,
		Start:   e.Start,
		Records: e.RecordCount(),
	}
	if end, ok := e.End(); ok {
		resp.End = &end
	}
	if !hasAt {
		at = math.MaxUint64
	}
	resp.Metadata, _ = e.MetadataAt(at)
	return resp
}
