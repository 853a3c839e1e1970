package main

import (
	"fmt"
	"io"
	"net/url"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/classpath"
	"github.com/git-pkgs/classpath/client"
)

type classificationOutput struct {
	Root        string         `yaml:"root"`
	Container   []string       `yaml:"container"`
	Application []string       `yaml:"application"`
	Plugins     []pluginOutput `yaml:"plugins"`
	SharedLibs  []string       `yaml:"shared_libs"`
}

type pluginOutput struct {
	Name string   `yaml:"name"`
	URLs []string `yaml:"urls"`
}

func newClassifyCmd(a *app) *cobra.Command {
	var (
		root         string
		sharedLibs   []string
		plugins      []string
		application  []string
		excluded     []string
		includeTests bool
		noTransitive bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Split a root artifact's dependencies into class loader layers",
		Example: `  classpath classify --root org.example:app:pom:1.0 \
    --plugin org.example:audit-plugin --shared-lib org.apache.derby:derby`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootArtifact, err := classpath.ParseArtifact(root)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("shared-lib") {
				sharedLibs = a.cfg.Classify.SharedLibs
			}
			if !flags.Changed("plugin") {
				plugins = a.cfg.Classify.Plugins
			}
			if !flags.Changed("application") {
				application = a.cfg.Classify.Application
			}
			if !flags.Changed("exclude") {
				excluded = a.cfg.Classify.Excluded
			}
			if !flags.Changed("include-tests") {
				includeTests = a.cfg.Classify.IncludeTests
			}
			transitive := a.cfg.TransitiveOrDefault()
			if flags.Changed("no-transitive") {
				transitive = !noTransitive
			}

			r, done, err := a.resolver()
			if err != nil {
				return err
			}
			defer done()

			cc := classpath.NewContext(rootArtifact,
				classpath.WithSharedPluginLibs(sharedLibs...),
				classpath.WithPlugins(plugins...),
				classpath.WithApplicationDependencies(application...),
				classpath.WithExcludedArtifacts(excluded...),
				classpath.WithTestDependencies(includeTests),
				classpath.WithTransitive(transitive),
			)
			result, err := classpath.NewClassifier(r, classpath.WithLogger(a.logger)).Classify(cmd.Context(), cc)
			if err != nil {
				return err
			}

			out := classificationOutput{
				Root:        rootArtifact.String(),
				Container:   urlStrings(result.ContainerURLs),
				Application: urlStrings(result.ApplicationURLs),
				SharedLibs:  urlStrings(result.PluginSharedLibURLs),
			}
			for _, p := range result.PluginClassificationURLs {
				out.Plugins = append(out.Plugins, pluginOutput{Name: p.Name, URLs: urlStrings(p.URLs)})
			}
			if a.output == outputYAML {
				return writeYAML(cmd.OutOrStdout(), out)
			}
			writeClassification(cmd.OutOrStdout(), out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&root, "root", "", "Root artifact, groupId:artifactId[:extension[:classifier]]:version")
	flags.StringSliceVar(&sharedLibs, "shared-lib", nil, "Test scoped dependency shared by all plugins (groupId:artifactId)")
	flags.StringSliceVar(&plugins, "plugin", nil, "Dependency classified as a plugin (groupId:artifactId)")
	flags.StringSliceVar(&application, "application", nil, "Dependency of the application layer (groupId:artifactId)")
	flags.StringSliceVar(&excluded, "exclude", nil, "Artifact removed from every layer (groupId:artifactId, * allowed)")
	flags.BoolVar(&includeTests, "include-tests", false, "Add test scoped dependencies to the application layer")
	flags.BoolVar(&noTransitive, "no-transitive", false, "Only classify direct dependencies")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var showURLs bool

	cmd := &cobra.Command{
		Use:   "resolve <artifact>",
		Short: "Download an artifact into the local repository and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := classpath.ParseArtifact(args[0])
			if err != nil {
				return err
			}

			r, done, err := a.resolver()
			if err != nil {
				return err
			}
			defer done()

			resolved, err := r.ResolveArtifact(cmd.Context(), artifact)
			if err != nil {
				return err
			}

			out := map[string]string{
				"artifact": resolved.String(),
				"file":     resolved.File,
			}
			if showURLs {
				repos := r.Repositories()
				for k, v := range client.BuildURLs(client.NewMavenURLs(repos[0]), resolved) {
					out[k] = v
				}
			}
			if a.output == outputYAML {
				return writeYAML(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			if !showURLs {
				fmt.Fprintln(w, resolved.File)
				return nil
			}
			keys := make([]string, 0, len(out))
			for k := range out {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "%-9s %s\n", k+":", out[k])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showURLs, "urls", false, "Also print registry, download, documentation and package URLs")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the dependency tree of an artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			rootArtifact, err := classpath.ParseArtifact(root)
			if err != nil {
				return err
			}

			r, done, err := a.resolver()
			if err != nil {
				return err
			}
			defer done()

			descriptor, err := r.ReadArtifactDescriptor(cmd.Context(), rootArtifact)
			if err != nil {
				return err
			}
			tree, err := r.Tree(cmd.Context(), classpath.ResolveRequest{
				Root:    &rootArtifact,
				Direct:  descriptor.Dependencies,
				Managed: descriptor.ManagedDependencies,
			})
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), tree)
			return err
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Root artifact, groupId:artifactId[:extension[:classifier]]:version")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}

func urlStrings(urls []*url.URL) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = u.String()
	}
	return out
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeClassification(w io.Writer, out classificationOutput) {
	section := func(title string, urls []string) {
		fmt.Fprintf(w, "%s:\n", title)
		for _, u := range urls {
			fmt.Fprintf(w, "  %s\n", u)
		}
	}

	section("Container", out.Container)
	section("Application", out.Application)
	for _, p := range out.Plugins {
		section("Plugin "+p.Name, p.URLs)
	}
	section("Shared libraries", out.SharedLibs)
}
