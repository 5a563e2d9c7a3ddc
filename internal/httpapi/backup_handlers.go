package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/techexlab/pois/internal/store"
)

// backupDocument is the export/import shape: every channel and rule that is
// not soft-deleted (disabled ones included). Soft-deleted rows are not
// exported.
type backupDocument struct {
	Channels []store.Channel `json:"channels"`
	Rules    []store.Rule    `json:"rules"`
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var allRules []store.Rule
	for _, c := range channels {
		rs, err := s.store.ListAllRules(r.Context(), c.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		allRules = append(allRules, rs...)
	}
	writeJSON(w, http.StatusOK, backupDocument{Channels: channels, Rules: allRules})
}

// handleBackupRestore upserts channels by name and inserts every rule as a
// new row under its channel's new id, reassigning ids rather than
// preserving the backup's numeric ids. Rules are not matched against
// existing rules by name, and the restore does not run in one transaction.
func (s *Server) handleBackupRestore(w http.ResponseWriter, r *http.Request) {
	var doc backupDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	nameToNewID := map[int64]int64{}
	for _, c := range doc.Channels {
		enabled := c.Enabled
		tz := c.Timezone
		created, err := s.store.UpsertChannel(r.Context(), store.UpsertChannel{
			Name: c.Name, Enabled: &enabled, Timezone: &tz,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		nameToNewID[c.ID] = created.ID
	}

	for _, rule := range doc.Rules {
		newChannelID, ok := nameToNewID[rule.ChannelID]
		if !ok {
			continue
		}
		if _, err := s.store.UpsertRule(r.Context(), newChannelID, 0, store.UpsertRule{
			Name:       rule.Name,
			Priority:   rule.Priority,
			Enabled:    &rule.Enabled,
			MatchJSON:  rule.MatchJSON,
			Action:     rule.Action,
			ParamsJSON: rule.ParamsJSON,
		}); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
