package export

import (
	"strings"

	"cursedclipper/internal/validate"
)

const maxTitleLen = 140
const maxDescriptionLen = 600
const maxTagLen = 280
const maxStemLen = 96

// sanitizedTask holds the normalized form of a Task, derived once per
// task loop iteration per §4.K step 1.
type sanitizedTask struct {
	Task
	ClipStem string
}

func sanitizeTask(t Task) sanitizedTask {
	s := sanitizedTask{Task: t}
	s.ClipID = strings.TrimSpace(t.ClipID)
	s.PlatformID = strings.TrimSpace(t.PlatformID)
	s.Title = validate.TruncateRunes(strings.TrimSpace(t.Title), maxTitleLen)
	s.Description = validate.TruncateRunes(strings.TrimSpace(t.Description), maxDescriptionLen)

	if len(t.Tags) > 0 {
		tags := make([]string, 0, len(t.Tags))
		for _, tag := range t.Tags {
			tag = validate.TruncateRunes(strings.TrimSpace(tag), maxTagLen)
			if tag != "" {
				tags = append(tags, tag)
			}
		}
		s.Tags = tags
	}

	stemSource := s.Title
	if stemSource == "" {
		stemSource = s.ClipID + "-" + s.PlatformID
	}
	s.ClipStem = validate.SlugName(stemSource, maxStemLen, s.ClipID+"-"+s.PlatformID)

	return s
}
