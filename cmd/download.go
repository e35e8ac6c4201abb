package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/okarpenko/mangaua/internal/catalog"
	"github.com/okarpenko/mangaua/internal/config"
	"github.com/okarpenko/mangaua/internal/fetch"
	"github.com/okarpenko/mangaua/internal/pdf"
	"github.com/okarpenko/mangaua/internal/store"
	"github.com/okarpenko/mangaua/internal/ui"
	"github.com/okarpenko/mangaua/internal/util"
)

var (
	// source
	flagMangaURL string
	flagBaseURL  string

	// output
	flagResultFolder string
	flagDataFolder   string
	flagResultPDF    string
	flagJoinEvery    int
	flagOneFile      bool
	flagResolution   float64

	// retention / safety
	flagKeepTemp bool
	flagKeepData bool
	flagForce    bool

	// runtime
	flagLogLevel       int
	flagPageWorkers    int
	flagChapterWorkers int
	flagRetries        int
	flagSkipBroken     bool
	flagDryRun         bool
	flagUserAgent      string
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download all chapters of a manga and produce PDF files",
		RunE:  runDownload,
	}

	// source
	downloadCmd.Flags().StringVarP(&flagMangaURL, "manga_url", "u", "", "relative manga path, e.g. boyovik/2252-berserk-berserk.html")
	downloadCmd.Flags().StringVar(&flagBaseURL, "base_url", "", "site root (default "+config.DefaultBaseURL+")")

	// output
	downloadCmd.Flags().StringVar(&flagResultFolder, "result_folder", "", "output folder for chapter/batch PDFs (default <manga>)")
	downloadCmd.Flags().StringVarP(&flagDataFolder, "data_folder", "d", "", "folder for downloaded images (default <manga>_data)")
	downloadCmd.Flags().IntVar(&flagJoinEvery, "join_every", 0, "merge every N consecutive chapters into one PDF")
	downloadCmd.Flags().StringVarP(&flagResultPDF, "result_pdf", "p", "", "path of the fully merged PDF (default <manga>.pdf)")
	downloadCmd.Flags().BoolVar(&flagOneFile, "one_file", false, "merge the whole manga into a single PDF")
	downloadCmd.Flags().Float64VarP(&flagResolution, "resolution", "r", 0, "PDF rendering resolution in DPI (default 100)")

	// retention / safety
	downloadCmd.Flags().BoolVar(&flagKeepTemp, "keep_temp", false, "keep the temp folder with per-chapter PDFs")
	downloadCmd.Flags().BoolVar(&flagKeepData, "keep_data", false, "keep the downloaded-images folder")
	downloadCmd.Flags().BoolVar(&flagForce, "force", false, "delete pre-existing target folders instead of failing")

	// runtime
	downloadCmd.Flags().IntVar(&flagLogLevel, "log_level", 0, "log level: 10 debug, 20 info, 30 warn, 40 error (default 20)")
	downloadCmd.Flags().IntVar(&flagPageWorkers, "page_workers", 0, "parallel page downloads per chapter (default 5)")
	downloadCmd.Flags().IntVar(&flagChapterWorkers, "chapter_workers", 0, "parallel chapter downloads (default 2)")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", 0, "attempts per HTTP request (default 3)")
	downloadCmd.Flags().BoolVar(&flagSkipBroken, "skip_broken", false, "skip failed pages/chapters instead of aborting the run")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry_run", false, "list chapters, don't download")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user_agent", "", "override User-Agent")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		MangaURL:     flagMangaURL,
		BaseURL:      flagBaseURL,
		DataFolder:   flagDataFolder,
		ResultFolder: flagResultFolder,
		ResultPDF:    flagResultPDF,
		JoinEvery:    flagJoinEvery,
		OneFile:      flagOneFile,
		Resolution:   flagResolution,
		LogLevel:     flagLogLevel,

		PageWorkers:    flagPageWorkers,
		ChapterWorkers: flagChapterWorkers,
		Retries:        flagRetries,
		SkipBroken:     flagSkipBroken,

		KeepTemp: flagKeepTemp,
		KeepData: flagKeepData,

		UserAgent: flagUserAgent,
	})
	if err != nil {
		return err
	}

	log := ui.NewLogger(cfg.LogLevel)
	if usedPath != "" {
		log.Infof("Config file: %s", usedPath)
	}

	mangaURL := cfg.DefaultMangaURL
	if mangaURL == "" {
		prompt := promptui.Prompt{Label: "Manga URL"}
		mangaURL, err = prompt.Run()
		if err != nil || mangaURL == "" {
			return fmt.Errorf("missing --manga_url and no default_manga_url in config")
		}
	}

	slug := catalog.Slug(mangaURL)

	dataFolder := cfg.DataFolder
	if dataFolder == "" {
		dataFolder = slug + "_data"
	}
	resultFolder := cfg.ResultFolder
	if resultFolder == "" {
		resultFolder = slug
	}
	resultPDF := cfg.ResultPDF
	if resultPDF == "" {
		resultPDF = slug + ".pdf"
	}
	tempFolder := slug + "_temp"

	// Conflict checks come before any network activity so a clash with a
	// previous run costs nothing.
	if !flagDryRun {
		if err := util.EnsureFreshDir(dataFolder, flagForce); err != nil {
			return err
		}
		if err := util.EnsureFreshDir(tempFolder, flagForce); err != nil {
			return err
		}
		if cfg.OneFile {
			if err := util.CheckFreshFile(resultPDF, flagForce); err != nil {
				return err
			}
		} else {
			if err := util.EnsureFreshDir(resultFolder, flagForce); err != nil {
				return err
			}
		}

		// Interrupt keeps the data folder so the run is resumable; only the
		// half-written PDFs go.
		util.SetupInterruptHandler(func() {
			util.CleanupFolder(tempFolder)
		})
	}

	client := fetch.NewClient(fetch.ClientOptions{
		Timeout:     30 * time.Second,
		UserAgent:   fetch.PickUserAgent(cfg.UserAgent),
		DebugLogger: log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infof("Pinging %s", cfg.BaseURL)
	if err := fetch.Ping(ctx, client, cfg.BaseURL); err != nil {
		return err
	}

	cat := catalog.New(client, cfg.BaseURL, cfg.Retries, log)
	listURL := cat.MangaURL(mangaURL)

	chapterList, err := cat.Chapters(ctx, listURL)
	if err != nil {
		return err
	}
	log.Infof("Found %d chapters at %s", len(chapterList), listURL)

	if flagDryRun {
		for _, ch := range chapterList {
			fmt.Printf("%3d) %s\n", ch.Index, ch.URL)
		}
		return nil
	}

	start := time.Now()

	pm := ui.NewProgressManager()
	stats := &ui.Stats{}

	st := store.New(client, store.Options{
		DataFolder: dataFolder,
		Workers:    cfg.PageWorkers,
		Retries:    cfg.Retries,
		SkipBroken: cfg.SkipBroken,
	}, log)
	asm := pdf.NewAssembler(cfg.Resolution, cfg.SkipBroken, log)

	var (
		mu          sync.Mutex
		chapterPDFs = map[int]string{}

		failOnce sync.Once
		runErr   error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			runErr = err
			cancel()
		})
	}

	total := len(chapterList)
	sem := make(chan struct{}, max(1, cfg.ChapterWorkers))
	var wg sync.WaitGroup

	for _, ch := range chapterList {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			skipChapter := func(err error) {
				if cfg.SkipBroken {
					log.Errorf("Chapter %d/%d failed: %v", ch.Index, total, err)
					stats.SkipChapter(fmt.Sprintf("chapter %d (%s): %v", ch.Index, ch.URL, err))
					return
				}
				fail(err)
			}

			pages, err := cat.Pages(ctx, ch.URL)
			if err != nil {
				skipChapter(err)
				return
			}

			handle := pm.Register(fmt.Sprintf("Ch.%d/%d", ch.Index, total), len(pages))

			res, err := st.DownloadChapter(ctx, ch.Index, pages, handle)
			if err != nil {
				handle.MarkDone()
				skipChapter(err)
				return
			}

			for _, ord := range res.Skipped {
				stats.SkipPage(fmt.Sprintf("chapter %d page %d", ch.Index, ord))
			}

			outPDF := filepath.Join(tempFolder, fmt.Sprintf("%d.pdf", ch.Index))
			unreadable, err := asm.AssembleChapter(res.Files, outPDF)
			for _, p := range unreadable {
				stats.SkipPage("unreadable image " + p)
			}
			if err != nil {
				skipChapter(err)
				return
			}

			mu.Lock()
			chapterPDFs[ch.Index] = outPDF
			mu.Unlock()

			stats.Chapters.Add(1)
			stats.Pages.Add(int64(len(res.Files) - len(unreadable)))
			stats.Bytes.Add(res.Bytes)
		}()
	}
	wg.Wait()
	pm.Close()

	if runErr != nil {
		return runErr
	}

	plan := pdf.NewPlan(total, cfg.JoinEvery, cfg.OneFile)
	merger := pdf.NewMerger(log)

	outputs, err := merger.Run(plan, chapterPDFs, resultFolder, resultPDF)
	if err != nil {
		return err
	}

	if !cfg.KeepTemp {
		util.CleanupFolder(tempFolder)
	}
	if !cfg.KeepData {
		log.Infof("Deleting data folder: %s", dataFolder)
		util.CleanupFolder(dataFolder)
	}

	fmt.Println()
	fmt.Println("Download Summary:")
	fmt.Printf("Chapters: %d/%d\n", stats.Chapters.Load(), total)
	fmt.Printf("Pages:    %d\n", stats.Pages.Load())
	fmt.Printf("Data:     %s\n", ui.Human(stats.Bytes.Load()))
	fmt.Printf("Outputs:  %d\n", len(outputs))
	fmt.Printf("Time:     %s\n", time.Since(start).Round(time.Second))

	skippedPages, skippedChapters := stats.Skipped()
	for _, s := range skippedChapters {
		log.Warnf("Skipped %s", s)
	}
	for _, s := range skippedPages {
		log.Warnf("Skipped %s", s)
	}

	if stats.Partial() {
		return fmt.Errorf("%w: %d pages, %d chapters", errPartial, len(skippedPages), len(skippedChapters))
	}

	fmt.Println("\nAll done.")

	return nil
}
