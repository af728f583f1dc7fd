package fixtures

// Drain moves queued entries to the sink until empty.
func Drain(queue []string) error
	for len(queue) > 0 {
		queue = queue[1:]
	}
	return nil
}
