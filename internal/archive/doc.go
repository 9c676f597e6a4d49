// Package archive keeps previous dimension files as timestamped backups
// and restores the newest one when writing a new file fails.
//
// Before a new dimension file is written, Manager.Rotate renames the
// current file to <name>.backup.<yyyy-MM-dd.HH-mm-ss> and prunes backups
// beyond the retention threshold. If the write then fails,
// Manager.Rollback renames the newest backup back to <name>.
//
// Ordering of backups is the job of a BackupStore. FSStore orders by file
// modification time.
package archive
