package store

import "github.com/roach88/icetime/internal/timeline"

func timelineDocument(data []byte) (string, error) {
	doc, err := timeline.DecodeDocument(data)
	if err != nil {
		return "", err
	}
	return doc.Digest, nil
}
