// Package dupefind finds groups of files with identical content under a
// directory tree without comparing every candidate pair byte for byte.
//
// # Pipeline
//
// Files are narrowed down through stages that get more expensive as the
// population shrinks:
//
//  1. size: only sizes strictly between MinSize and MaxSize, and only sizes
//     shared by two or more files, go on
//  2. head: a digest of the first WindowSize bytes
//  3. tail: a digest of the last WindowSize bytes (the whole file when it is
//     smaller than the window)
//  4. content: an optional digest of the whole file
//
// Only files that agree with another file on every stage end up in a
// DuplicateGroup. Without the content stage a group is a strong indication of
// equality, not a proof.
//
// # Core API
//
//	opts := dupefind.DefaultOptions("/path/to/dir")
//	report, err := dupefind.FindDuplicates(opts, nil)
//	if err != nil {
//		return err
//	}
//	for _, group := range report.Groups() {
//		fmt.Printf("%s: %v\n", group.Hash, group.Files)
//	}
//	s := report.Summary()
//	fmt.Printf("%d groups, %d files, %d redundant\n", s.Groups, s.Files, s.Redundant)
//
// The stages are also usable on their own: Walker enumerates candidates,
// Extractor computes window fingerprints and Engine groups a CandidateSource.
//
// # Configuration
//
// LoadConfig reads an ini file ([filter], [filehash], [output], [verbose],
// [performance]) over the built-in defaults and ApplyOverrides layers
// "key:value" strings on top. Debug output is enabled with
//
//	dupefind.SetDebugFlags("walk,stage,hash")
//	dupefind.SetVerboseLevel(2)
package dupefind
