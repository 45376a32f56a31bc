// Package imageio reads and writes arctic images.
//
// The text format is the exchange format of the command line tool:
//
//	n_rows n_columns
//	row_0_column_0 row_0_column_1 ...
//	row_1_column_0 ...
//
// Values are whitespace separated; line breaks carry no meaning beyond
// readability. Text files round-trip exactly.
//
// TIFF files hold 16-bit grayscale samples with an explicit linear scale
// (electrons per count), since float TIFF is not available. PNG export is
// an 8-bit preview stretched between the image minimum and maximum.
package imageio
