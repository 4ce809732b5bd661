package tape

import "context"

// Source pages backwards through a tape. History returns up to limit
// trades strictly older than beforeSeq, newest first, and reports
// whether older trades remain past the returned page. A beforeSeq of
// zero or less starts from the newest trade available.
type Source interface {
	History(ctx context.Context, beforeSeq int64, limit int) ([]Trade, bool, error)
}
