package db

// UpdateDownload persists a download's current status/progress.
func (d *Database) UpdateDownload(download *Download) error {
	return d.db.Save(download).Error
}

// MarkPieceDownloaded flips a piece's downloaded flag, keyed by its
// download and index. Safe to call more than once for the same piece:
// saving the same state twice is a no-op in effect.
func (d *Database) MarkPieceDownloaded(downloadID uint, index int) error {
	piece := &Piece{}
	if err := d.db.Where("download_id = ? AND \"index\" = ?", downloadID, index).First(piece).Error; err != nil {
		return err
	}
	piece.IsDownloaded = true
	return d.db.Save(piece).Error
}
