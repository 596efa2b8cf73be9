// Package cli provides the journal command-line client.
//
// It wires configuration, the local state database, the selected persistence
// backend, the audit writer and the seed coordinator into a journal.Journal,
// and exposes it two ways: one-shot cobra commands (list, seed, sync, log)
// and an interactive shell.
//
// Shell commands:
//   - list                  list visible entries
//   - show <id>             print an entry without marking it read
//   - open <id>             print an entry and mark it read
//   - next | prev           walk the navigation order from the last opened entry
//   - add | edit <id>       create or edit an entry (interactive prompts)
//   - read <id>             toggle the read flag
//   - delete <id>           delete an entry; it stays in the audit log
//   - filter                toggle the unread-only filter
//   - log                   print the audit log
//   - seed | sync [log]     bootstrap or re-merge the remote store
//   - help | exit | quit
//
// The shell is started via App.Root(ctx), which blocks until the user exits.
package cli
