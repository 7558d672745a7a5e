package regf

// Signatures.
var (
	sigREGF = []byte{'r', 'e', 'g', 'f'}
	sigHBIN = []byte{'h', 'b', 'i', 'n'}
)

const (
	sigNK = "nk"
	sigVK = "vk"
	sigLF = "lf"
	sigLH = "lh"
	sigLI = "li"
	sigRI = "ri"
	sigDB = "db"
)

const (
	// HeaderSize is the size of the base block; hive bins start right after it.
	HeaderSize = 0x1000

	cellHeaderSize = 4

	headerMajorOffset    = 0x014
	headerMinorOffset    = 0x018
	headerRootCellOffset = 0x024
	headerDataSizeOffset = 0x028

	nkFlagsOffset       = 0x02
	nkSubkeyCountOffset = 0x14
	nkSubkeyListOffset  = 0x1C
	nkValueCountOffset  = 0x24
	nkValueListOffset   = 0x28
	nkNameLenOffset     = 0x48
	nkNameOffset        = 0x4C

	// NKFlagCompressedName marks an nk name stored as Windows-1252 bytes.
	NKFlagCompressedName = 0x0020

	vkNameLenOffset = 0x02
	vkDataLenOffset = 0x04
	vkDataOffOffset = 0x08
	vkTypeOffset    = 0x0C
	vkFlagsOffset   = 0x10
	vkNameOffset    = 0x14

	// VKFlagASCIIName marks a vk name stored as Windows-1252 bytes.
	VKFlagASCIIName = 0x0001
	// VKDataInline is set in the data length when the data lives in the
	// data offset field itself.
	VKDataInline = 0x80000000

	listCountOffset = 0x02
	listEntries     = 0x04
	lfEntrySize     = 8
	liEntrySize     = 4

	dbCountOffset = 0x02
	dbListOffset  = 0x04

	// DBChunkSize is the payload size of each big-data segment. Values
	// longer than this are stored behind a db record.
	DBChunkSize = 16344

	invalidOffset = 0xFFFFFFFF

	// maxDepth bounds key nesting so a looping hive cannot recurse forever.
	maxDepth = 512
)
