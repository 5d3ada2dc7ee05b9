// Package scraper fetches the draw history page and extracts its first HTML table.
//
// The remote page is decoded according to its declared charset before parsing, since the
// draw history source serves GB2312/GBK. Table extraction expands colspan and rowspan cells
// so that every row lines up positionally, and pads short rows to the widest row.
package scraper
