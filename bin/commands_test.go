package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/ntfsdump/internal/fixtures"
	"www.velocidex.com/golang/ntfsdump/parser"
)

type CommandsTestSuite struct {
	suite.Suite

	volume *parser.VolumeHandle
}

func (self *CommandsTestSuite) SetupTest() {
	volume, err := parser.OpenVolume(fixtures.StandardImage().Data,
		parser.GetDefaultOptions())
	self.Require().NoError(err)
	self.volume = volume
}

func (self *CommandsTestSuite) TestInfo() {
	out := &bytes.Buffer{}
	writeInfo(out, self.volume)

	g := goldie.New(self.T())
	g.Assert(self.T(), "TestInfo", out.Bytes())
}

func (self *CommandsTestSuite) TestResolveTarget() {
	target, err := resolveTarget(self.volume, "3-128-4")
	self.Require().NoError(err)
	self.Equal(uint64(3), target.MFTId)
	self.Equal(uint64(4), target.AttrId)

	target, err = resolveTarget(self.volume, "/")
	self.Require().NoError(err)
	self.Equal(uint64(parser.ROOT_MFT_ID), target.MFTId)

	target, err = resolveTarget(self.volume, `\DOCS\big.bin:Zone.Identifier`)
	self.Require().NoError(err)
	self.Equal(uint64(3), target.MFTId)
	self.Equal("Zone.Identifier", target.Stream)

	_, err = resolveTarget(self.volume, "/nothere.txt")
	self.Error(err)
}

func (self *CommandsTestSuite) TestStat() {
	out := &bytes.Buffer{}
	self.Require().NoError(writeStat(out, self.volume, "2", true))

	self.Contains(out.String(), "[MFT_ENTRY] @ 0x4800")
	self.Contains(out.String(), `"Name": "hello.txt"`)
	self.Contains(out.String(), "Path: /hello.txt")

	self.Error(writeStat(&bytes.Buffer{}, self.volume, "1", false))
	self.Error(writeStat(&bytes.Buffer{}, self.volume, "7", false))
}

func (self *CommandsTestSuite) TestAttributes() {
	out := &bytes.Buffer{}
	self.Require().NoError(writeAttributes(out, self.volume, "3"))

	self.Contains(out.String(), "3-48-3")
	self.Contains(out.String(), "3-128-4")
	self.Contains(out.String(), "Zone.Identifier")
	self.Contains(out.String(), "0x58")
	self.NotContains(out.String(), "Problem")
}

func (self *CommandsTestSuite) TestRuns() {
	out := &bytes.Buffer{}
	self.Require().NoError(writeRuns(out, self.volume, "3", false))
	self.Contains(out.String(), "Sparse")
	self.NotContains(out.String(), "Resident")

	out.Reset()
	self.Require().NoError(writeRuns(out, self.volume, "3-128-4", false))
	self.Contains(out.String(), "Resident")
	self.NotContains(out.String(), "Sparse")

	out.Reset()
	self.Require().NoError(writeRuns(out, self.volume, "3", true))
	self.Contains(out.String(), "Resident")
	self.Contains(out.String(), "Sparse")

	self.Error(writeRuns(out, self.volume, "3-128-9", false))
}

func (self *CommandsTestSuite) TestListing() {
	children, err := listDirectory(self.volume, parser.ROOT_MFT_ID, false)
	self.Require().NoError(err)

	names := []string{}
	for _, child := range children {
		names = append(names, child.Name)
	}
	self.Equal([]string{"$MFT", "hello.txt", "docs"}, names)

	children, err = listDirectory(self.volume, parser.ROOT_MFT_ID, true)
	self.Require().NoError(err)
	self.Equal(4, len(children))
	self.Equal("deleted.txt", children[2].Name)
	self.False(children[2].InUse)

	out := &bytes.Buffer{}
	self.Require().NoError(writeListing(out, self.volume, "/docs", false))
	self.Contains(out.String(), "big.bin")
	self.NotContains(out.String(), "BIG~1.BIN")

	self.Error(writeListing(out, self.volume, "2", false))
}

func (self *CommandsTestSuite) TestCheck() {
	out := &bytes.Buffer{}
	counts := checkEntries(out, self.volume, 0, 100)

	self.Equal(6, counts[parser.OutcomeDecoded])
	self.Equal(1, counts[parser.OutcomeUnused])
	self.Equal(1, counts[parser.OutcomeCorrupt])
	self.Equal(0, counts[parser.OutcomeNoSuchIndex])
	self.Contains(out.String(), "Error: 7:")
}

func (self *CommandsTestSuite) TestCat() {
	out := &bytes.Buffer{}
	n, err := writeStream(out, self.volume, "2", 0)
	self.Require().NoError(err)
	self.Equal(int64(len(fixtures.HelloContent)), n)
	self.Equal(fixtures.HelloContent, out.String())

	out.Reset()
	n, err = writeStream(out, self.volume, "/docs/big.bin", 0)
	self.Require().NoError(err)
	self.Equal(int64(fixtures.BigSize), n)

	expected := strings.Repeat("A", fixtures.ClusterSize) +
		strings.Repeat("\x00", fixtures.ClusterSize) +
		strings.Repeat("C", fixtures.BigSize-2*fixtures.ClusterSize)
	self.Equal(expected, out.String())

	out.Reset()
	_, err = writeStream(out, self.volume, "3", 4000)
	self.Require().NoError(err)
	self.Equal(expected[4000:], out.String())

	out.Reset()
	_, err = writeStream(out, self.volume, "3-128-4", 0)
	self.Require().NoError(err)
	self.Equal(fixtures.ZoneContent, out.String())

	out.Reset()
	_, err = writeStream(out, self.volume, "/docs/big.bin:Zone.Identifier", 0)
	self.Require().NoError(err)
	self.Equal(fixtures.ZoneContent, out.String())

	// Directories have no $DATA.
	_, err = writeStream(out, self.volume, "6", 0)
	self.Error(err)
}

func (self *CommandsTestSuite) TestShell() {
	in := strings.NewReader("1\n\n2\n7\n99\nabc\n3\nquit\n4\n")
	out := &bytes.Buffer{}
	self.Require().NoError(runShell(in, out, self.volume))

	output := out.String()
	self.Contains(output, "NumEntry: 0x8")
	self.Contains(output, "unused entry")
	self.Contains(output, "name: hello.txt (Win32)")
	self.Contains(output, "path: /hello.txt")
	self.Contains(output, "corrupt entry:")
	self.Equal(2, strings.Count(output, "invalid index"))
	self.Contains(output, "sparse 0x1000")
	self.Contains(output, "path: /docs/big.bin")

	// Nothing after quit is read.
	self.NotContains(output, "deleted.txt")
}

func (self *CommandsTestSuite) TestShellEOF() {
	out := &bytes.Buffer{}
	self.Require().NoError(runShell(strings.NewReader("2"), out, self.volume))
	self.Contains(out.String(), "name: hello.txt")
}

func TestCommands(t *testing.T) {
	suite.Run(t, &CommandsTestSuite{})
}
