package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	_ "modernc.org/sqlite"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	export_command = app.Command(
		"export", "Export all decodable entries into an SQLite database.")

	export_command_file_arg = export_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	export_command_db_arg = export_command.Arg(
		"db", "The SQLite database to write",
	).Required().String()

	export_command_batch_size = export_command.Flag(
		"batch_size", "Entries to insert per transaction.",
	).Default("10000").Int()
)

var export_schema = []string{
	`DROP TABLE IF EXISTS entries`,
	`DROP TABLE IF EXISTS extents`,
	`CREATE TABLE entries (
        mft_id INTEGER NOT NULL PRIMARY KEY,
        entry_offset INTEGER,
        sequence INTEGER,
        in_use INTEGER,
        is_dir INTEGER,
        flags TEXT,
        name TEXT,
        name_type TEXT,
        parent INTEGER,
        full_path TEXT,
        size INTEGER,
        created TEXT,
        modified TEXT,
        accessed TEXT,
        fixups INTEGER,
        problems INTEGER)`,
	`CREATE TABLE extents (
        mft_id INTEGER NOT NULL,
        idx INTEGER,
        stream TEXT,
        disk_offset INTEGER,
        length INTEGER,
        sparse INTEGER,
        resident INTEGER)`,
	`CREATE INDEX idx_parent ON entries(parent)`,
	`CREATE INDEX idx_extents ON extents(mft_id)`,
}

type exporter struct {
	db         *sql.DB
	batch_size int

	tx          *sql.Tx
	entry_stmt  *sql.Stmt
	extent_stmt *sql.Stmt
	batch       int
}

func (self *exporter) begin() error {
	if self.tx != nil {
		return nil
	}

	tx, err := self.db.Begin()
	if err != nil {
		return err
	}

	self.entry_stmt, err = tx.Prepare(`INSERT INTO entries (
        mft_id, entry_offset, sequence, in_use, is_dir, flags, name, name_type,
        parent, full_path, size, created, modified, accessed, fixups, problems)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}

	self.extent_stmt, err = tx.Prepare(`INSERT INTO extents (
        mft_id, idx, stream, disk_offset, length, sparse, resident)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}

	self.tx = tx
	return nil
}

func (self *exporter) flush() error {
	if self.tx == nil {
		return nil
	}

	self.entry_stmt.Close()
	self.extent_stmt.Close()
	err := self.tx.Commit()

	self.tx = nil
	self.batch = 0
	return err
}

func formatTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func (self *exporter) insert(file *parser.DecodedFile, full_path string) error {
	err := self.begin()
	if err != nil {
		return err
	}

	_, err = self.entry_stmt.Exec(file.MFTID, file.Offset, file.Sequence,
		file.InUse, file.IsDir, file.Flags, file.Name, file.NameType,
		file.Parent, full_path, file.Size, formatTime(file.Created),
		formatTime(file.Modified), formatTime(file.Accessed),
		len(file.Fixups), len(file.Problems))
	if err != nil {
		return errors.Wrapf(err, "inserting entry %d", file.MFTID)
	}

	for idx, extent := range file.Extents {
		_, err = self.extent_stmt.Exec(file.MFTID, idx, extent.Stream,
			extent.Offset, extent.Length, extent.Sparse, extent.Resident)
		if err != nil {
			return errors.Wrapf(err, "inserting extent of %d", file.MFTID)
		}
	}

	self.batch++
	if self.batch >= self.batch_size {
		return self.flush()
	}
	return nil
}

// Write every decodable entry of the volume into db. Returns the
// number of entries exported.
func exportVolume(db *sql.DB, volume *parser.VolumeHandle, batch_size int) (int, error) {
	for _, stmt := range export_schema {
		_, err := db.Exec(stmt)
		if err != nil {
			return 0, errors.Wrap(err, "creating schema")
		}
	}

	if batch_size <= 0 {
		batch_size = 1
	}

	export := &exporter{db: db, batch_size: batch_size}
	count := 0
	for i := uint64(0); i < volume.EntryCount(); i++ {
		file, err := volume.Decode(i)
		if err != nil {
			continue
		}

		full_path := ""
		if file.HasName() {
			full_path, _ = volume.FullPath(i)
		}

		err = export.insert(file, full_path)
		if err != nil {
			if export.tx != nil {
				export.tx.Rollback()
			}
			return count, err
		}
		count++
	}

	return count, export.flush()
}

func doExport() {
	image := openImage(*export_command_file_arg)
	defer image.Close()

	db, err := sql.Open("sqlite", *export_command_db_arg)
	kingpin.FatalIfError(err, "Can not open database")
	defer db.Close()

	count, err := exportVolume(db, image.VolumeHandle, *export_command_batch_size)
	kingpin.FatalIfError(err, "Export")

	fmt.Printf("Exported %d of %d entries to %v\n",
		count, image.EntryCount(), *export_command_db_arg)
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "export":
			doExport()
		default:
			return false
		}
		return true
	})
}
