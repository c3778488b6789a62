package generate

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// frameWriter emits one `data: <json>\n\n` line per SSE frame and flushes
// immediately after, mirroring the corpus's http.Flusher-driven event loop.
type frameWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newFrameWriter(w http.ResponseWriter) *frameWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &frameWriter{w: w, flusher: flusher}
}

func (fw *frameWriter) write(frame any) {
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}
	fmt.Fprintf(fw.w, "data: %s\n\n", b)
	if fw.flusher != nil {
		fw.flusher.Flush()
	}
}

func (fw *frameWriter) streamID(id string) {
	fw.write(map[string]string{"type": "streamId", "streamId": id})
}

func (fw *frameWriter) status(message string) {
	fw.write(map[string]string{"type": "status", "message": message})
}

func (fw *frameWriter) message(content string) {
	fw.write(map[string]string{"type": "message", "message": content})
}

func (fw *frameWriter) chunk(delta, full string) {
	fw.write(map[string]string{"type": "chunk", "content": delta, "fullContent": full})
}

func (fw *frameWriter) fileUpdate(path string) {
	fw.write(map[string]string{"type": "fileUpdate", "path": path, "message": "updated " + path})
}

func (fw *frameWriter) end(message, chatID string) {
	fw.write(map[string]string{"type": "end", "message": message, "chatId": chatID})
}

func (fw *frameWriter) error(err error) {
	fw.write(map[string]string{"type": "error", "error": err.Error()})
}
