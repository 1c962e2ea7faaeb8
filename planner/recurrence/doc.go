/*
Package recurrence expands task definitions and per-occurrence exceptions
into the concrete occurrences that fall inside a time window.

# Basic Usage

	engine := recurrence.NewEngine()
	defer engine.Close()

	instances, err := engine.Expand(tasks, exceptions,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		log.Fatal(err)
	}
	for _, inst := range instances {
		fmt.Println(inst.ScheduledTime, inst.Title)
	}

Tasks and exceptions come from a storage.Store implementation (or any other
source producing the storage record types); the engine itself performs no
I/O. The returned instances are sorted ascending by scheduled time, with ties
broken by input task order, and are recomputed on every call.

# Exceptions

An exception attaches to one occurrence of one task, keyed by the occurrence's
original (unmodified) instant. A cancelled exception suppresses the
occurrence; other exceptions may reschedule it, change its duration or title,
or mark it complete. The original instant stays on the emitted instance even
when the occurrence was moved, so editors can always address the underlying
occurrence.

Exception matching is string-identity on a canonical UTC form of the instant,
not a tolerance-based comparison. Writers of exception records must store the
occurrence instant exactly as generated (second precision is preserved,
fractional seconds are not).

# Error Handling

Malformed tasks or exceptions and unevaluable recurrence rules are skipped
with a log line; one bad record never aborts the whole expansion. Only an
invalid window (end before start, or zero bounds) returns an error, together
with an empty result.

# Configuration

NewEngineWithConfig accepts an EngineConfig controlling rule-set caching, the
per-task occurrence cap, the logger, and the RuleEvaluator implementation.
The default evaluator is backed by rrule-go and accepts RFC 5545 RRULE
bodies such as "FREQ=WEEKLY;INTERVAL=2;COUNT=10".
*/
package recurrence
